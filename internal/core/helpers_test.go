package core

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

// mustLoad parses and infers a CSV literal or fails the test.
func mustLoad(t testing.TB, csv string) *Table {
	t.Helper()
	table, err := LoadTable(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	return table
}

// columnValues returns the displayed values of one column.
func columnValues(t testing.TB, table *Table, name string) []string {
	t.Helper()
	col, err := table.Column(name)
	if err != nil {
		t.Fatalf("Column(%q): %v", name, err)
	}
	out := make([]string, col.Len())
	for i := range out {
		out[i] = col.Display(i)
	}
	return out
}

func assertStrings(t testing.TB, label string, got, want []string) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s = %q, want %q", label, got, want)
	}
}

func maskOf(bits ...bool) Mask {
	return Mask(bits)
}
