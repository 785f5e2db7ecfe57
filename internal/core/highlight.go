package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Reasons a highlight rule is disabled for a pass.
var (
	ErrHighlightOp    = errors.New("unsupported highlight operator")
	ErrHighlightKind  = errors.New("operator not supported for text column")
	ErrHighlightValue = errors.New("highlight value does not parse")
	ErrHighlightEmpty = errors.New("highlight value is empty")
	ErrHighlightColor = errors.New("invalid highlight color")
)

// colorRegex accepts hex colors (#rgb through #rrggbbaa) and CSS color names.
var colorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{3,8}$|^[a-zA-Z]+$`)

// HighlightResult is the outcome of one rule. Err is set when the rule is
// disabled for this pass; Mask is nil in that case.
type HighlightResult struct {
	Rule HighlightRule
	Mask Mask
	Err  error
}

// Active reports whether the rule produced a mask.
func (r HighlightResult) Active() bool {
	return r.Err == nil
}

// EvaluateHighlights evaluates every rule against t. A failing rule is
// disabled on its own and never affects the other rules.
func EvaluateHighlights(t *Table, rules []HighlightRule) []HighlightResult {
	results := make([]HighlightResult, len(rules))
	for i, rule := range rules {
		mask, err := evaluateHighlight(t, rule)
		results[i] = HighlightResult{Rule: rule, Mask: mask, Err: err}
	}
	return results
}

func evaluateHighlight(t *Table, rule HighlightRule) (Mask, error) {
	col, err := t.Column(rule.Column)
	if err != nil {
		return nil, err
	}
	if !colorRegex.MatchString(strings.TrimSpace(rule.Color)) {
		return nil, fmt.Errorf("%w: %q", ErrHighlightColor, rule.Color)
	}
	if IsMissing(rule.Value) {
		return nil, ErrHighlightEmpty
	}

	switch rule.Op {
	case HighlightContains:
		mask := make(Mask, col.Len())
		evalContains(col, rule.Value, mask)
		return mask, nil
	case HighlightEquals:
		if col.Kind == KindText {
			mask := make(Mask, col.Len())
			for i, c := range col.Cells {
				mask[i] = c.Valid && c.Raw == rule.Value
			}
			return mask, nil
		}
		return compareHighlight(col, CondEquals, rule.Value)
	case HighlightGreater:
		return compareHighlight(col, CondGreater, rule.Value)
	case HighlightLess:
		return compareHighlight(col, CondLess, rule.Value)
	}
	return nil, fmt.Errorf("%w: %q", ErrHighlightOp, rule.Op)
}

// compareHighlight evaluates an ordered comparison on a numeric or date
// column. Unlike filters, an unparsable value disables the rule.
func compareHighlight(col *Column, cond Condition, value string) (Mask, error) {
	switch col.Kind {
	case KindNumeric:
		if _, ok := ParseNumber(value); !ok {
			return nil, fmt.Errorf("%w: %q is not a number", ErrHighlightValue, value)
		}
	case KindDate:
		if _, ok := ParseDate(value); !ok {
			return nil, fmt.Errorf("%w: %q is not a date", ErrHighlightValue, value)
		}
	default:
		return nil, fmt.Errorf("%w: %s on %q", ErrHighlightKind, cond, col.Name)
	}
	return Evaluate(col, cond, value, "")
}

// CellStyles returns, for each row and column, the color of the last active
// rule matching that cell, or "" when none matches.
func CellStyles(t *Table, results []HighlightResult) [][]string {
	styles := make([][]string, t.NumRows())
	for r := range styles {
		styles[r] = make([]string, len(t.Columns))
	}
	for _, res := range results {
		if !res.Active() {
			continue
		}
		ci := t.index[res.Rule.Column]
		for r, hit := range res.Mask {
			if hit {
				styles[r][ci] = strings.TrimSpace(res.Rule.Color)
			}
		}
	}
	return styles
}
