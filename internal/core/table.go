package core

import (
	"errors"
	"fmt"
)

// ErrUnknownColumn is returned when a sort key, filter row, or lookup names a
// column the table does not have.
var ErrUnknownColumn = errors.New("unknown column")

// Table is an ordered set of equally long columns.
// Tables are never mutated after construction; sorting and filtering build
// new tables.
type Table struct {
	Columns []Column
	index   map[string]int
	rows    int
}

// NewTable builds a table, checking that names are unique and every column
// has the same number of cells.
func NewTable(cols []Column) (*Table, error) {
	t := &Table{
		Columns: cols,
		index:   make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		t.index[c.Name] = i
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), t.rows)
		}
	}
	return t, nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return t.rows
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column or an error wrapping ErrUnknownColumn.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return &t.Columns[i], nil
}

// Take returns a new table containing the given rows in the given order.
// Kinds are carried over, never re-inferred.
func (t *Table) Take(rows []int) *Table {
	cols := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		cells := make([]Cell, len(rows))
		for j, r := range rows {
			cells[j] = c.Cells[r]
		}
		cols[i] = Column{Name: c.Name, Kind: c.Kind, Cells: cells}
	}
	out := &Table{Columns: cols, index: t.index, rows: len(rows)}
	return out
}

// Row returns the display strings of row i.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.Columns))
	for j := range t.Columns {
		row[j] = t.Columns[j].Display(i)
	}
	return row
}
