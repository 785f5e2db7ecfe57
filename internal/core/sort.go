package core

import (
	"fmt"
	"sort"
	"strings"
)

// SortOrder returns the row permutation that sorts t by keys. The sort is
// stable across all keys: rows equal on every key keep their input order.
// Missing cells sort after defined cells in both directions.
func SortOrder(t *Table, keys []SortKey) ([]int, error) {
	cols := make([]*Column, len(keys))
	for i, k := range keys {
		c, err := t.Column(k.Column)
		if err != nil {
			return nil, fmt.Errorf("sort key %d: %w", i+1, err)
		}
		cols[i] = c
	}

	order := make([]int, t.NumRows())
	for i := range order {
		order[i] = i
	}
	if len(keys) == 0 {
		return order, nil
	}

	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := order[a], order[b]
		for i, c := range cols {
			ca, cb := c.Cells[ra], c.Cells[rb]
			switch {
			case !ca.Valid && !cb.Valid:
				continue
			case !ca.Valid:
				return false
			case !cb.Valid:
				return true
			}
			cmp := compareCells(c.Kind, ca, cb)
			if cmp == 0 {
				continue
			}
			if keys[i].Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
	return order, nil
}

// SortTable returns a new table with rows reordered by keys.
func SortTable(t *Table, keys []SortKey) (*Table, error) {
	if len(keys) == 0 {
		return t, nil
	}
	order, err := SortOrder(t, keys)
	if err != nil {
		return nil, err
	}
	return t.Take(order), nil
}

// compareCells compares two defined cells of the same Kind.
func compareCells(k Kind, a, b Cell) int {
	switch k {
	case KindNumeric:
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		}
		return 0
	case KindDate:
		return a.Time.Compare(b.Time)
	default:
		return strings.Compare(a.Raw, b.Raw)
	}
}
