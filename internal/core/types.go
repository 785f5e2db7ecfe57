package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Kind is the inferred semantic type of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
	KindDate
)

// String returns the lowercase name used in the UI and JSON responses.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindDate:
		return "date"
	default:
		return "text"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "numeric":
		*k = KindNumeric
	case "date":
		*k = KindDate
	case "text":
		*k = KindText
	default:
		return fmt.Errorf("unknown column kind %q", b)
	}
	return nil
}

// Cell is one value of a column. Valid is false for empty or missing cells.
// Num is set for numeric columns, Time for date columns; Raw always holds
// the original CSV text.
type Cell struct {
	Raw   string
	Num   float64
	Time  time.Time
	Valid bool
}

// Column is a named, typed sequence of cells.
type Column struct {
	Name  string
	Kind  Kind
	Cells []Cell
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	return len(c.Cells)
}

// Display returns the stringified value of row i.
// Missing cells render as the empty string.
func (c *Column) Display(i int) string {
	cell := c.Cells[i]
	if !cell.Valid {
		return ""
	}
	switch c.Kind {
	case KindNumeric:
		return FormatNumber(cell.Num)
	case KindDate:
		return FormatDate(cell.Time)
	default:
		return cell.Raw
	}
}

// Condition is a filter comparison selected for one FilterRow.
type Condition string

const (
	CondEquals   Condition = "equals"
	CondContains Condition = "contains"
	CondGreater  Condition = "gt"
	CondLess     Condition = "lt"
	CondRange    Condition = "range"
)

// Valid reports whether c is a known condition.
func (c Condition) Valid() bool {
	switch c {
	case CondEquals, CondContains, CondGreater, CondLess, CondRange:
		return true
	}
	return false
}

// ConditionsFor returns the conditions offered for a column of the given kind.
// Text columns only offer equality and substring matching.
func ConditionsFor(k Kind) []Condition {
	conds := []Condition{CondEquals, CondContains}
	if k == KindNumeric || k == KindDate {
		conds = append(conds, CondGreater, CondLess, CondRange)
	}
	return conds
}

// LogicOp combines every filter row of a FilterSet.
type LogicOp string

const (
	LogicAnd LogicOp = "AND"
	LogicOr  LogicOp = "OR"
)

// ParseLogicOp parses "AND"/"OR" case-insensitively. Empty means AND.
func ParseLogicOp(s string) (LogicOp, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AND":
		return LogicAnd, nil
	case "OR":
		return LogicOr, nil
	}
	return "", fmt.Errorf("invalid logic operator %q (want AND or OR)", s)
}

// FilterRow is one user-specified predicate over a single column.
// To is only used by the range condition.
type FilterRow struct {
	Column    string    `json:"column" yaml:"column"`
	Condition Condition `json:"condition" yaml:"condition"`
	Value     string    `json:"value" yaml:"value"`
	To        string    `json:"to,omitempty" yaml:"to,omitempty"`
}

// Inert reports whether the row is missing a required value and therefore
// contributes no constraint. Only an empty string is missing; a value of
// spaces is an active constraint.
func (f FilterRow) Inert() bool {
	if f.Value == "" {
		return true
	}
	return f.Condition == CondRange && f.To == ""
}

// FilterSet is the ordered list of filter rows plus the single logic
// operator applied across all of them.
type FilterSet struct {
	Logic LogicOp     `json:"logic" yaml:"logic"`
	Rows  []FilterRow `json:"rows" yaml:"rows"`
}

// SortKey is one level of a multi-key sort.
type SortKey struct {
	Column    string `json:"column" yaml:"column"`
	Ascending bool   `json:"ascending" yaml:"ascending"`
}

// sortKeyDoc mirrors SortKey with an optional direction so that an omitted
// "ascending" field defaults to true.
type sortKeyDoc struct {
	Column    string `json:"column" yaml:"column"`
	Ascending *bool  `json:"ascending" yaml:"ascending"`
}

func (d sortKeyDoc) key() SortKey {
	k := SortKey{Column: d.Column, Ascending: true}
	if d.Ascending != nil {
		k.Ascending = *d.Ascending
	}
	return k
}

// UnmarshalJSON implements json.Unmarshaler.
func (k *SortKey) UnmarshalJSON(b []byte) error {
	var d sortKeyDoc
	if err := json.Unmarshal(b, &d); err != nil {
		return err
	}
	*k = d.key()
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (k *SortKey) UnmarshalYAML(node *yaml.Node) error {
	var d sortKeyDoc
	if err := node.Decode(&d); err != nil {
		return err
	}
	*k = d.key()
	return nil
}

// HighlightOp is the comparison used by a HighlightRule.
type HighlightOp string

const (
	HighlightGreater  HighlightOp = ">"
	HighlightLess     HighlightOp = "<"
	HighlightEquals   HighlightOp = "=="
	HighlightContains HighlightOp = "contains"
)

// HighlightRule is a presentation-only styling rule. It never affects which
// rows are selected.
type HighlightRule struct {
	Column string      `json:"column" yaml:"column"`
	Op     HighlightOp `json:"op" yaml:"op"`
	Value  string      `json:"value" yaml:"value"`
	Color  string      `json:"color" yaml:"color"`
}

// Request is everything one pipeline invocation needs besides the raw CSV.
type Request struct {
	Sort       []SortKey       `json:"sort,omitempty" yaml:"sort,omitempty"`
	Filters    FilterSet       `json:"filters" yaml:"filters"`
	Highlights []HighlightRule `json:"highlights,omitempty" yaml:"highlights,omitempty"`
}

// DecodeRequestYAML parses a YAML request document.
func DecodeRequestYAML(data []byte) (Request, error) {
	var req Request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

// Mask selects rows by index. A nil Mask means "all rows".
type Mask []bool

// Count returns the number of selected rows.
func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Rows returns the selected row indices in ascending order.
func (m Mask) Rows() []int {
	rows := make([]int, 0, m.Count())
	for i, v := range m {
		if v {
			rows = append(rows, i)
		}
	}
	return rows
}

// FormatNumber renders a float without exponent or trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatDate renders a date, omitting the clock when it is midnight.
func FormatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	if t.Nanosecond() != 0 {
		return t.Format("2006-01-02 15:04:05.999999999")
	}
	return t.Format("2006-01-02 15:04:05")
}
