package core

import (
	"fmt"
	"strings"
	"time"
)

// Evaluate returns the mask of rows of col that satisfy cond.
//
// Numeric and date columns parse v1 (and v2 for range) in the column's Kind;
// a value that does not parse matches nothing. Text columns compare
// case-insensitively, and gt/lt/range on text fall back to contains.
// Missing cells never match. Only an unknown condition is an error.
func Evaluate(col *Column, cond Condition, v1, v2 string) (Mask, error) {
	if !cond.Valid() {
		return nil, fmt.Errorf("unknown condition %q", cond)
	}

	mask := make(Mask, col.Len())
	switch col.Kind {
	case KindNumeric:
		evalNumeric(col, cond, v1, v2, mask)
	case KindDate:
		evalDate(col, cond, v1, v2, mask)
	default:
		evalText(col, cond, v1, mask)
	}
	return mask, nil
}

func evalNumeric(col *Column, cond Condition, v1, v2 string, mask Mask) {
	if cond == CondContains {
		evalContains(col, v1, mask)
		return
	}

	lo, ok := ParseNumber(v1)
	if !ok {
		return
	}
	var hi float64
	if cond == CondRange {
		if hi, ok = ParseNumber(v2); !ok {
			return
		}
	}

	for i, c := range col.Cells {
		if !c.Valid {
			continue
		}
		switch cond {
		case CondEquals:
			mask[i] = c.Num == lo
		case CondGreater:
			mask[i] = c.Num > lo
		case CondLess:
			mask[i] = c.Num < lo
		case CondRange:
			mask[i] = c.Num >= lo && c.Num <= hi
		}
	}
}

func evalDate(col *Column, cond Condition, v1, v2 string, mask Mask) {
	if cond == CondContains {
		evalContains(col, v1, mask)
		return
	}

	lo, ok := ParseDate(v1)
	if !ok {
		return
	}
	var hi time.Time
	if cond == CondRange {
		if hi, ok = ParseDate(v2); !ok {
			return
		}
	}

	for i, c := range col.Cells {
		if !c.Valid {
			continue
		}
		switch cond {
		case CondEquals:
			mask[i] = c.Time.Equal(lo)
		case CondGreater:
			mask[i] = c.Time.After(lo)
		case CondLess:
			mask[i] = c.Time.Before(lo)
		case CondRange:
			mask[i] = !c.Time.Before(lo) && !c.Time.After(hi)
		}
	}
}

func evalText(col *Column, cond Condition, v1 string, mask Mask) {
	if cond != CondEquals {
		evalContains(col, v1, mask)
		return
	}
	want := strings.ToLower(v1)
	for i, c := range col.Cells {
		mask[i] = c.Valid && strings.ToLower(c.Raw) == want
	}
}

// evalContains is a case-insensitive literal substring match against the
// displayed value of each cell.
func evalContains(col *Column, v1 string, mask Mask) {
	needle := strings.ToLower(v1)
	for i, c := range col.Cells {
		if !c.Valid {
			continue
		}
		mask[i] = strings.Contains(strings.ToLower(col.Display(i)), needle)
	}
}
