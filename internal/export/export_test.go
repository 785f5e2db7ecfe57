package export

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/wizreport/internal/core"
)

const exportCSV = `id;amount;closed;owner;url
1;12.5;2024-01-05;Ana;https://example.com/1
2;;2024-02-10 13:45:00;Bo;https://example.com/2
3;-4;;Cy;
4;1000000;2023-12-31;;https://example.com/4
`

func loadFixture(t *testing.T) *core.Table {
	t.Helper()
	tbl, err := core.LoadTable(context.Background(), strings.NewReader(exportCSV))
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	return tbl
}

func assertSameShape(t *testing.T, got, want *core.Table) {
	t.Helper()
	if got.NumRows() != want.NumRows() {
		t.Errorf("rows = %d, want %d", got.NumRows(), want.NumRows())
	}
	if g, w := strings.Join(got.ColumnNames(), "|"), strings.Join(want.ColumnNames(), "|"); g != w {
		t.Errorf("columns = %s, want %s", g, w)
	}
}

func assertSameKinds(t *testing.T, got, want *core.Table) {
	t.Helper()
	for i := range want.Columns {
		if got.Columns[i].Kind != want.Columns[i].Kind {
			t.Errorf("column %q kind = %s, want %s", want.Columns[i].Name, got.Columns[i].Kind, want.Columns[i].Kind)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatXLSX, false},
		{"XLSX", FormatXLSX, false},
		{"csv", FormatCSV, false},
		{" arrow ", FormatArrow, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	_, err := ParseFormat("pdf")
	if msg := core.MapError(err); msg.Code != "EXP001" {
		t.Errorf("MapError code = %s, want EXP001", msg.Code)
	}
}

func TestFormatFileName(t *testing.T) {
	if got := FormatCSV.FileName("uploads/wiz report.csv"); got != "wiz report.csv" {
		t.Errorf("FileName = %q", got)
	}
	if got := FormatXLSX.FileName(""); got != "report.xlsx" {
		t.Errorf("FileName(empty) = %q", got)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	src := loadFixture(t)

	var buf bytes.Buffer
	if err := Write(&buf, src, FormatCSV); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := core.LoadTable(context.Background(), &buf)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	assertSameShape(t, got, src)
	assertSameKinds(t, got, src)
	for i := 0; i < src.NumRows(); i++ {
		if g, w := strings.Join(got.Row(i), ";"), strings.Join(src.Row(i), ";"); g != w {
			t.Errorf("row %d = %q, want %q", i, g, w)
		}
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	src := loadFixture(t)

	var buf bytes.Buffer
	if err := Write(&buf, src, FormatXLSX); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := LoadXLSX(context.Background(), &buf)
	if err != nil {
		t.Fatalf("LoadXLSX: %v", err)
	}

	assertSameShape(t, got, src)
	assertSameKinds(t, got, src)

	closed, _ := got.Column("closed")
	if v := closed.Display(1); v != "2024-02-10 13:45:00" {
		t.Errorf("closed[1] = %q, want naive timestamp", v)
	}
	if closed.Cells[2].Valid {
		t.Error("missing date should stay missing")
	}
}

func TestRoundTrip_BlankRows(t *testing.T) {
	sources := map[string]string{
		"trailing all-missing row":   "a;b\n1;x\n;\n",
		"single column with gap":     "a\nx\n\"\"\ny\n",
		"single column trailing gap": "a\n1\n2\n\"\"\n",
	}
	readers := map[Format]func(*bytes.Buffer) (*core.Table, error){
		FormatCSV:   func(b *bytes.Buffer) (*core.Table, error) { return core.LoadTable(context.Background(), b) },
		FormatXLSX:  func(b *bytes.Buffer) (*core.Table, error) { return LoadXLSX(context.Background(), b) },
		FormatArrow: func(b *bytes.Buffer) (*core.Table, error) { return ReadArrow(b) },
	}

	for name, csv := range sources {
		src, err := core.LoadTable(context.Background(), strings.NewReader(csv))
		if err != nil {
			t.Fatalf("%s: LoadTable: %v", name, err)
		}
		for format, read := range readers {
			t.Run(name+"/"+string(format), func(t *testing.T) {
				var buf bytes.Buffer
				if err := Write(&buf, src, format); err != nil {
					t.Fatalf("Write: %v", err)
				}
				got, err := read(&buf)
				if err != nil {
					t.Fatalf("reload: %v", err)
				}
				assertSameShape(t, got, src)
				for i := 0; i < min(got.NumRows(), src.NumRows()); i++ {
					if g, w := strings.Join(got.Row(i), ";"), strings.Join(src.Row(i), ";"); g != w {
						t.Errorf("row %d = %q, want %q", i, g, w)
					}
				}
			})
		}
	}
}

func TestWriteCSV_QuotesLoneEmptyField(t *testing.T) {
	src, err := core.LoadTable(context.Background(), strings.NewReader("a\nx\n\"\"\ny\n"))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, src); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "a\nx\n\"\"\ny\n"; got != want {
		t.Errorf("WriteCSV = %q, want %q", got, want)
	}
}

func TestLastRow(t *testing.T) {
	tests := map[string]int{
		"Sheet1!$A$1:$C$9": 9,
		"A1:B3":            3,
		"A1":               1,
		"":                 0,
		"garbage":          0,
	}
	for ref, want := range tests {
		if got := lastRow(ref); got != want {
			t.Errorf("lastRow(%q) = %d, want %d", ref, got, want)
		}
	}
}

func TestXLSXRoundTrip_FilteredResult(t *testing.T) {
	src := loadFixture(t)
	filtered, err := core.ApplyFilters(src, core.FilterSet{Rows: []core.FilterRow{
		{Column: "amount", Condition: core.CondGreater, Value: "0"},
	}})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, filtered); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	got, err := LoadXLSX(context.Background(), &buf)
	if err != nil {
		t.Fatalf("LoadXLSX: %v", err)
	}
	assertSameShape(t, got, filtered)
}

func TestArrowRoundTrip(t *testing.T) {
	src := loadFixture(t)

	var buf bytes.Buffer
	if err := Write(&buf, src, FormatArrow); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := ReadArrow(&buf)
	if err != nil {
		t.Fatalf("ReadArrow: %v", err)
	}

	assertSameShape(t, got, src)
	assertSameKinds(t, got, src)
	for i := 0; i < src.NumRows(); i++ {
		if g, w := strings.Join(got.Row(i), ";"), strings.Join(src.Row(i), ";"); g != w {
			t.Errorf("row %d = %q, want %q", i, g, w)
		}
	}
}

func TestArrowSchema(t *testing.T) {
	schema := ArrowSchema(loadFixture(t))
	want := map[string]string{
		"id":     "float64",
		"amount": "float64",
		"closed": "timestamp[us]",
		"owner":  "utf8",
	}
	for name, typ := range want {
		idx := schema.FieldIndices(name)
		if len(idx) != 1 {
			t.Fatalf("field %q missing", name)
		}
		if got := schema.Field(idx[0]).Type.String(); got != typ {
			t.Errorf("field %q type = %s, want %s", name, got, typ)
		}
	}
}

func TestWriteEmptyTable(t *testing.T) {
	tbl, err := core.LoadTable(context.Background(), strings.NewReader("a;b\n"))
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range Formats {
		var buf bytes.Buffer
		if err := Write(&buf, tbl, f); err != nil {
			t.Errorf("Write(%s) on empty table: %v", f, err)
		}
	}
}
