package core

import (
	"context"
	"testing"
	"time"
)

func TestInferColumn(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want Kind
	}{
		{name: "integers", raw: []string{"1", "2", "3"}, want: KindNumeric},
		{name: "one unparsable value forces text", raw: []string{"1", "2", "x"}, want: KindText},
		{name: "decimals with blanks", raw: []string{"1.5", "", "  ", "-2e3"}, want: KindNumeric},
		{name: "all empty", raw: []string{"", " ", ""}, want: KindText},
		{name: "no rows", raw: nil, want: KindText},
		{name: "iso dates", raw: []string{"2024-01-15", "2024-02-01", ""}, want: KindDate},
		{name: "mixed date layouts", raw: []string{"2024-01-15", "01/20/2024", "Feb 3, 2024"}, want: KindDate},
		{name: "timestamps with offset", raw: []string{"2024-01-15T10:00:00+02:00", "2024-01-15T11:00:00Z"}, want: KindDate},
		{name: "date with one bad value", raw: []string{"2024-01-15", "soon"}, want: KindText},
		{name: "numbers win over compact dates", raw: []string{"20240115", "20240116"}, want: KindNumeric},
		{name: "numbers and dates mixed", raw: []string{"5", "2024-01-15"}, want: KindText},
		{name: "currency is text", raw: []string{"$5", "$6"}, want: KindText},
		{name: "NA token is text", raw: []string{"1", "NA"}, want: KindText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := InferColumn("c", tt.raw)
			if col.Kind != tt.want {
				t.Errorf("Kind = %v, want %v", col.Kind, tt.want)
			}
			if col.Len() != len(tt.raw) {
				t.Errorf("Len = %d, want %d", col.Len(), len(tt.raw))
			}
		})
	}
}

func TestInferColumn_MissingCells(t *testing.T) {
	col := InferColumn("amount", []string{"10", "", "2.5"})
	if col.Cells[1].Valid {
		t.Error("empty cell should be missing")
	}
	if !col.Cells[0].Valid || col.Cells[0].Num != 10 {
		t.Errorf("cell 0 = %+v", col.Cells[0])
	}
	assertStrings(t, "display", []string{col.Display(0), col.Display(1), col.Display(2)}, []string{"10", "", "2.5"})
}

func TestInferColumn_DatesAreNaive(t *testing.T) {
	col := InferColumn("at", []string{"2024-01-15T10:00:00+02:00"})
	want := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	if !col.Cells[0].Time.Equal(want) {
		t.Errorf("time = %v, want %v", col.Cells[0].Time, want)
	}
}

func TestInferTable_PreservesColumnOrder(t *testing.T) {
	raw := &RawTable{
		Headers: []string{"z", "y", "x", "w", "v", "u", "t", "s", "r", "q"},
		Columns: make([][]string, 10),
		Rows:    1,
	}
	for i := range raw.Columns {
		raw.Columns[i] = []string{"1"}
	}
	raw.Columns[3] = []string{"word"}

	table, err := InferTable(context.Background(), raw)
	if err != nil {
		t.Fatalf("InferTable: %v", err)
	}
	assertStrings(t, "names", table.ColumnNames(), raw.Headers)
	for i, c := range table.Columns {
		want := KindNumeric
		if i == 3 {
			want = KindText
		}
		if c.Kind != want {
			t.Errorf("column %q Kind = %v, want %v", c.Name, c.Kind, want)
		}
	}
}

func TestTable_Column(t *testing.T) {
	table := mustLoad(t, "a;b\n1;x\n")
	if _, err := table.Column("missing"); err == nil {
		t.Fatal("expected error for unknown column")
	}
	col, err := table.Column("b")
	if err != nil {
		t.Fatal(err)
	}
	if col.Kind != KindText {
		t.Errorf("Kind = %v, want text", col.Kind)
	}
}

func TestTable_TakeKeepsKinds(t *testing.T) {
	table := mustLoad(t, "n;s\n3;c\n1;a\n2;b\n")
	taken := table.Take([]int{2, 0})
	if taken.NumRows() != 2 {
		t.Fatalf("NumRows = %d, want 2", taken.NumRows())
	}
	assertStrings(t, "n", columnValues(t, taken, "n"), []string{"2", "3"})
	if c, _ := taken.Column("n"); c.Kind != KindNumeric {
		t.Errorf("Kind = %v, want numeric", c.Kind)
	}
}

func TestNewTable_RejectsRaggedColumns(t *testing.T) {
	_, err := NewTable([]Column{
		{Name: "a", Cells: make([]Cell, 2)},
		{Name: "b", Cells: make([]Cell, 3)},
	})
	if err == nil {
		t.Error("expected error for unequal column lengths")
	}
}

func TestConditionsFor(t *testing.T) {
	if got := ConditionsFor(KindText); len(got) != 2 {
		t.Errorf("text conditions = %v, want equals and contains", got)
	}
	for _, k := range []Kind{KindNumeric, KindDate} {
		if got := ConditionsFor(k); len(got) != 5 {
			t.Errorf("%v conditions = %v, want all five", k, got)
		}
	}
}
