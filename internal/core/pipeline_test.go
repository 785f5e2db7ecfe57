package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const reportCSV = `id;score;name;team;url
1;80;Cara;red;https://example.com/1
2;95;Ben;blue;https://example.com/2
3;80;Abe;red;
4;95;Ben;green;https://example.com/4
5;70;Dee;blue;https://example.com/5
6;x;Eve;red;
`

func runPipeline(t *testing.T, csv string, req Request) *Result {
	t.Helper()
	p := &Pipeline{}
	res, err := p.Run(context.Background(), strings.NewReader(csv), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestPipeline_InfersScoreAsTextWhenOneValueBad(t *testing.T) {
	res := runPipeline(t, reportCSV, Request{})
	col, _ := res.Table.Column("score")
	if col.Kind != KindText {
		t.Errorf("score Kind = %v, want text", col.Kind)
	}
	id, _ := res.Table.Column("id")
	if id.Kind != KindNumeric {
		t.Errorf("id Kind = %v, want numeric", id.Kind)
	}
}

func TestPipeline_GreaterThan(t *testing.T) {
	res := runPipeline(t, "id;v\n1;1\n2;2\n3;3\n", Request{
		Filters: FilterSet{Rows: []FilterRow{{Column: "v", Condition: CondGreater, Value: "1"}}},
	})
	assertStrings(t, "id", columnValues(t, res.Table, "id"), []string{"2", "3"})
	if res.TotalRows != 3 || res.MatchedRows() != 2 {
		t.Errorf("TotalRows=%d MatchedRows=%d, want 3 and 2", res.TotalRows, res.MatchedRows())
	}
}

func TestPipeline_RangeInclusive(t *testing.T) {
	res := runPipeline(t, "id;v\n1;9.99\n2;10\n3;15\n4;20\n5;20.01\n", Request{
		Filters: FilterSet{Rows: []FilterRow{{Column: "v", Condition: CondRange, Value: "10", To: "20"}}},
	})
	assertStrings(t, "id", columnValues(t, res.Table, "id"), []string{"2", "3", "4"})
}

func TestPipeline_OrVersusAnd(t *testing.T) {
	csv := "id;A;B\n1;x;zzz\n2;q;yes\n3;x;y\n4;q;n\n"
	rows := []FilterRow{
		{Column: "A", Condition: CondEquals, Value: "x"},
		{Column: "B", Condition: CondContains, Value: "y"},
	}

	or := runPipeline(t, csv, Request{Filters: FilterSet{Logic: LogicOr, Rows: rows}})
	assertStrings(t, "OR ids", columnValues(t, or.Table, "id"), []string{"1", "2", "3"})

	and := runPipeline(t, csv, Request{Filters: FilterSet{Logic: LogicAnd, Rows: rows}})
	assertStrings(t, "AND ids", columnValues(t, and.Table, "id"), []string{"3"})
}

func TestPipeline_AndIsSubsetOfOr(t *testing.T) {
	sets := [][]FilterRow{
		{{Column: "team", Condition: CondEquals, Value: "red"}, {Column: "name", Condition: CondContains, Value: "e"}},
		{{Column: "id", Condition: CondGreater, Value: "2"}, {Column: "id", Condition: CondLess, Value: "5"}},
		{{Column: "id", Condition: CondRange, Value: "1", To: "3"}, {Column: "url", Condition: CondContains, Value: "example"}, {Column: "team", Condition: CondEquals, Value: "blue"}},
		{{Column: "id", Condition: CondEquals, Value: "nope"}},
		{{Column: "id", Condition: CondRange, Value: "1"}},
	}
	for i, rows := range sets {
		and := runPipeline(t, reportCSV, Request{Filters: FilterSet{Logic: LogicAnd, Rows: rows}})
		or := runPipeline(t, reportCSV, Request{Filters: FilterSet{Logic: LogicOr, Rows: rows}})

		orIDs := make(map[string]bool)
		for _, id := range columnValues(t, or.Table, "id") {
			orIDs[id] = true
		}
		for _, id := range columnValues(t, and.Table, "id") {
			if !orIDs[id] {
				t.Errorf("set %d: row %s selected by AND but not OR", i, id)
			}
		}
		if and.MatchedRows() > or.MatchedRows() {
			t.Errorf("set %d: AND matched %d rows, OR %d", i, and.MatchedRows(), or.MatchedRows())
		}
	}
}

func TestPipeline_InertRange(t *testing.T) {
	req := Request{Filters: FilterSet{Rows: []FilterRow{{Column: "id", Condition: CondRange, Value: "2", To: ""}}}}
	res := runPipeline(t, reportCSV, req)
	if res.MatchedRows() != res.TotalRows {
		t.Errorf("inert range filtered rows: %d of %d", res.MatchedRows(), res.TotalRows)
	}

	// With another row active, the inert row does not change the result.
	active := FilterRow{Column: "team", Condition: CondEquals, Value: "blue"}
	with := runPipeline(t, reportCSV, Request{Filters: FilterSet{Rows: []FilterRow{active, req.Filters.Rows[0]}}})
	without := runPipeline(t, reportCSV, Request{Filters: FilterSet{Rows: []FilterRow{active}}})
	assertStrings(t, "ids", columnValues(t, with.Table, "id"), columnValues(t, without.Table, "id"))
}

func TestPipeline_AllInertSelectsAll(t *testing.T) {
	for _, logic := range []LogicOp{LogicAnd, LogicOr} {
		res := runPipeline(t, reportCSV, Request{Filters: FilterSet{Logic: logic, Rows: []FilterRow{
			{Column: "name", Condition: CondEquals, Value: ""},
			{Column: "id", Condition: CondRange, Value: "", To: "3"},
		}}})
		if res.MatchedRows() != 6 {
			t.Errorf("%s: matched %d rows, want all 6", logic, res.MatchedRows())
		}
	}
}

func TestPipeline_WhitespaceValueIsActive(t *testing.T) {
	tests := []struct {
		name string
		row  FilterRow
		want int
	}{
		{"numeric gt unparseable", FilterRow{Column: "id", Condition: CondGreater, Value: "  "}, 0},
		{"text equals spaces", FilterRow{Column: "name", Condition: CondEquals, Value: "  "}, 0},
		{"text contains space", FilterRow{Column: "name", Condition: CondContains, Value: " "}, 0},
		{"range with blank upper bound", FilterRow{Column: "id", Condition: CondRange, Value: "2", To: " "}, 0},
		{"empty value stays inert", FilterRow{Column: "id", Condition: CondGreater, Value: ""}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runPipeline(t, reportCSV, Request{Filters: FilterSet{Rows: []FilterRow{tt.row}}})
			if res.MatchedRows() != tt.want {
				t.Errorf("matched %d rows, want %d", res.MatchedRows(), tt.want)
			}
		})
	}
}

func TestPipeline_MultiKeySortThenFilter(t *testing.T) {
	res := runPipeline(t, reportCSV, Request{
		Sort: []SortKey{{Column: "team", Ascending: true}, {Column: "name", Ascending: false}},
		Filters: FilterSet{Rows: []FilterRow{
			{Column: "id", Condition: CondLess, Value: "6"},
		}},
	})
	// Filtering keeps the sorted order.
	assertStrings(t, "id", columnValues(t, res.Table, "id"), []string{"5", "2", "4", "1", "3"})
}

func TestPipeline_FreshPerRun(t *testing.T) {
	narrow := Request{Filters: FilterSet{Rows: []FilterRow{{Column: "team", Condition: CondEquals, Value: "red"}}}}
	if got := runPipeline(t, reportCSV, narrow).MatchedRows(); got != 3 {
		t.Fatalf("narrow run matched %d, want 3", got)
	}
	if got := runPipeline(t, reportCSV, Request{}).MatchedRows(); got != 6 {
		t.Errorf("second run matched %d, want 6", got)
	}
}

func TestPipeline_UnknownColumnsFailFast(t *testing.T) {
	p := &Pipeline{}
	for name, req := range map[string]Request{
		"sort":   {Sort: []SortKey{{Column: "missing", Ascending: true}}},
		"filter": {Filters: FilterSet{Rows: []FilterRow{{Column: "missing", Condition: CondEquals}}}},
	} {
		_, err := p.Run(context.Background(), strings.NewReader(reportCSV), req)
		if !errors.Is(err, ErrUnknownColumn) || !strings.Contains(err.Error(), "missing") {
			t.Errorf("%s: err = %v, want unknown column naming %q", name, err, "missing")
		}
	}

	// Unknown highlight columns only disable the rule.
	res := runPipeline(t, reportCSV, Request{Highlights: []HighlightRule{{Column: "missing", Op: HighlightContains, Value: "x", Color: "red"}}})
	if res.Highlights[0].Active() {
		t.Error("highlight on unknown column should be disabled")
	}
}

func TestPipeline_LoadError(t *testing.T) {
	p := &Pipeline{}
	res, err := p.Run(context.Background(), strings.NewReader(""), Request{})
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("err = %v, want ErrEmptyFile", err)
	}
	if res != nil {
		t.Error("result returned on load failure")
	}
}

func TestPipeline_ObservesStagesAndCancellation(t *testing.T) {
	var stages []string
	p := &Pipeline{Observe: func(stage string, d time.Duration) { stages = append(stages, stage) }}
	if _, err := p.Run(context.Background(), strings.NewReader(reportCSV), Request{}); err != nil {
		t.Fatal(err)
	}
	assertStrings(t, "stages", stages, []string{StageLoad, StageInfer, StageSort, StageFilter, StageHighlight})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Run(ctx, strings.NewReader(reportCSV), Request{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestDecodeRequestYAML(t *testing.T) {
	req, err := DecodeRequestYAML([]byte(`
sort:
  - column: score
    ascending: false
  - column: name
filters:
  logic: OR
  rows:
    - {column: score, condition: range, value: "10", to: "20"}
highlights:
  - {column: score, op: ">", value: "15", color: "#ff0000"}
`))
	if err != nil {
		t.Fatalf("DecodeRequestYAML: %v", err)
	}
	if len(req.Sort) != 2 || req.Sort[0].Ascending || !req.Sort[1].Ascending {
		t.Errorf("sort = %+v, want descending then default ascending", req.Sort)
	}
	if req.Filters.Logic != LogicOr || req.Filters.Rows[0].To != "20" {
		t.Errorf("filters = %+v", req.Filters)
	}
	if req.Highlights[0].Op != HighlightGreater {
		t.Errorf("highlight op = %q", req.Highlights[0].Op)
	}
}

func TestPipeline_RunTableMatchesRun(t *testing.T) {
	req := Request{
		Sort:    []SortKey{{Column: "name", Ascending: true}},
		Filters: FilterSet{Logic: LogicAnd, Rows: []FilterRow{{Column: "team", Condition: CondEquals, Value: "red"}}},
	}
	want := runPipeline(t, reportCSV, req)

	tbl, err := LoadTable(context.Background(), strings.NewReader(reportCSV))
	if err != nil {
		t.Fatal(err)
	}
	var stages []string
	p := &Pipeline{Observe: func(stage string, _ time.Duration) { stages = append(stages, stage) }}
	got, err := p.RunTable(context.Background(), tbl, req)
	if err != nil {
		t.Fatalf("RunTable: %v", err)
	}

	if got.TotalRows != want.TotalRows || got.MatchedRows() != want.MatchedRows() {
		t.Fatalf("rows = %d/%d, want %d/%d", got.MatchedRows(), got.TotalRows, want.MatchedRows(), want.TotalRows)
	}
	for i := 0; i < want.MatchedRows(); i++ {
		if g, w := strings.Join(got.Table.Row(i), ";"), strings.Join(want.Table.Row(i), ";"); g != w {
			t.Errorf("row %d = %q, want %q", i, g, w)
		}
	}
	if strings.Join(stages, ",") != "sort,filter,highlight" {
		t.Errorf("stages = %v", stages)
	}
}
