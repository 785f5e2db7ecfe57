package core

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// InferColumn decides the Kind of a column from its raw values and returns the
// typed column.
//
// A column is Numeric when it has at least one populated value and every
// populated value parses as a number, else Date under the same rule for dates,
// else Text. Empty cells become missing in every Kind.
func InferColumn(name string, raw []string) Column {
	col := Column{Name: name, Kind: KindText, Cells: make([]Cell, len(raw))}

	populated := 0
	for _, v := range raw {
		if !IsMissing(v) {
			populated++
		}
	}

	if populated > 0 && fillNumeric(col.Cells, raw) {
		col.Kind = KindNumeric
		return col
	}
	if populated > 0 && fillDate(col.Cells, raw) {
		col.Kind = KindDate
		return col
	}

	for i, v := range raw {
		col.Cells[i] = Cell{Raw: v, Valid: !IsMissing(v)}
	}
	return col
}

// fillNumeric parses every populated value as a number. It stops and returns
// false at the first failure.
func fillNumeric(cells []Cell, raw []string) bool {
	for i, v := range raw {
		if IsMissing(v) {
			cells[i] = Cell{Raw: v}
			continue
		}
		n, ok := ParseNumber(v)
		if !ok {
			return false
		}
		cells[i] = Cell{Raw: v, Num: n, Valid: true}
	}
	return true
}

func fillDate(cells []Cell, raw []string) bool {
	for i, v := range raw {
		if IsMissing(v) {
			cells[i] = Cell{Raw: v}
			continue
		}
		t, ok := ParseDate(v)
		if !ok {
			return false
		}
		cells[i] = Cell{Raw: v, Time: t, Valid: true}
	}
	return true
}

// InferTable infers every column of raw in parallel. Results are written by
// column index so the column order matches the header.
func InferTable(ctx context.Context, raw *RawTable) (*Table, error) {
	cols := make([]Column, len(raw.Headers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(inferParallelism)
	for i := range raw.Headers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cols[i] = InferColumn(raw.Headers[i], raw.Columns[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("infer columns: %w", err)
	}

	t, err := NewTable(cols)
	if err != nil {
		return nil, fmt.Errorf("build table: %w", err)
	}
	return t, nil
}

// inferParallelism caps the number of columns inferred at once.
var inferParallelism = 8

// KindSummary returns "name:kind" pairs, used in log lines.
func KindSummary(t *Table) string {
	parts := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		parts[i] = c.Name + ":" + c.Kind.String()
	}
	return strings.Join(parts, ",")
}
