package core

import (
	"sort"
	"time"
)

// topValuesLimit is the number of most frequent values kept for text columns.
const topValuesLimit = 5

// CategoryCount is one distinct text value and how often it occurs.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ColumnSummary describes one column of a pipeline result.
// Min and Max are display strings so numeric and date columns share a shape.
type ColumnSummary struct {
	Name      string          `json:"name"`
	Kind      Kind            `json:"kind"`
	Populated int             `json:"populated"`
	Missing   int             `json:"missing"`
	Distinct  int             `json:"distinct"`
	Min       string          `json:"min,omitempty"`
	Max       string          `json:"max,omitempty"`
	TopValues []CategoryCount `json:"top_values,omitempty"`
}

// Summary holds the counts shown above a report.
type Summary struct {
	TotalRows   int             `json:"total_rows"`
	MatchedRows int             `json:"matched_rows"`
	Columns     []ColumnSummary `json:"columns"`
}

// Summarize computes row counts and per-column statistics over the
// filtered table of res.
func Summarize(res *Result) Summary {
	s := Summary{
		TotalRows:   res.TotalRows,
		MatchedRows: res.MatchedRows(),
		Columns:     make([]ColumnSummary, len(res.Table.Columns)),
	}
	for i := range res.Table.Columns {
		s.Columns[i] = summarizeColumn(&res.Table.Columns[i])
	}
	return s
}

func summarizeColumn(c *Column) ColumnSummary {
	cs := ColumnSummary{Name: c.Name, Kind: c.Kind}

	counts := make(map[string]int)
	var (
		minNum, maxNum   float64
		minTime, maxTime time.Time
	)
	for i, cell := range c.Cells {
		if !cell.Valid {
			cs.Missing++
			continue
		}
		first := cs.Populated == 0
		cs.Populated++
		counts[c.Display(i)]++

		switch c.Kind {
		case KindNumeric:
			if first || cell.Num < minNum {
				minNum = cell.Num
			}
			if first || cell.Num > maxNum {
				maxNum = cell.Num
			}
		case KindDate:
			if first || cell.Time.Before(minTime) {
				minTime = cell.Time
			}
			if first || cell.Time.After(maxTime) {
				maxTime = cell.Time
			}
		}
	}
	cs.Distinct = len(counts)

	if cs.Populated == 0 {
		return cs
	}
	switch c.Kind {
	case KindNumeric:
		cs.Min, cs.Max = FormatNumber(minNum), FormatNumber(maxNum)
	case KindDate:
		cs.Min, cs.Max = FormatDate(minTime), FormatDate(maxTime)
	default:
		cs.TopValues = topValues(counts, topValuesLimit)
	}
	return cs
}

// topValues returns the n most frequent values, ties broken alphabetically.
func topValues(counts map[string]int, n int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, CategoryCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
