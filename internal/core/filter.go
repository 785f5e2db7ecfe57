package core

import "fmt"

// Compose folds masks into one using logic. The first mask seeds the
// accumulator and the rest are combined in order. A nil result means no
// mask constrained the selection and every row is selected.
func Compose(masks []Mask, logic LogicOp) Mask {
	var acc Mask
	for _, m := range masks {
		if m == nil {
			continue
		}
		if acc == nil {
			acc = append(Mask(nil), m...)
			continue
		}
		for i := range acc {
			if logic == LogicOr {
				acc[i] = acc[i] || m[i]
			} else {
				acc[i] = acc[i] && m[i]
			}
		}
	}
	return acc
}

// FilterMask evaluates every active row of fs against t and composes the
// results. Rows naming an unknown column fail even when inert.
func FilterMask(t *Table, fs FilterSet) (Mask, error) {
	logic, err := ParseLogicOp(string(fs.Logic))
	if err != nil {
		return nil, err
	}

	masks := make([]Mask, 0, len(fs.Rows))
	for i, row := range fs.Rows {
		col, err := t.Column(row.Column)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i+1, err)
		}
		if row.Inert() {
			continue
		}
		m, err := Evaluate(col, row.Condition, row.Value, row.To)
		if err != nil {
			return nil, fmt.Errorf("filter %d on %q: %w", i+1, row.Column, err)
		}
		masks = append(masks, m)
	}
	return Compose(masks, logic), nil
}

// ApplyFilters returns the rows of t selected by fs, in their current order.
func ApplyFilters(t *Table, fs FilterSet) (*Table, error) {
	mask, err := FilterMask(t, fs)
	if err != nil {
		return nil, err
	}
	if mask == nil {
		return t, nil
	}
	return t.Take(mask.Rows()), nil
}
