package core

import (
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ParseNumber Tests
// ----------------------------------------------------------------------------

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		want      float64
	}{
		{name: "positive integer", input: "123", wantValid: true, want: 123},
		{name: "zero", input: "0", wantValid: true, want: 0},
		{name: "negative integer", input: "-456", wantValid: true, want: -456},
		{name: "explicit plus", input: "+7", wantValid: true, want: 7},
		{name: "decimal", input: "123.45", wantValid: true, want: 123.45},
		{name: "leading decimal point", input: ".99", wantValid: true, want: 0.99},
		{name: "trailing decimal point", input: "99.", wantValid: true, want: 99},
		{name: "exponent", input: "1.5e3", wantValid: true, want: 1500},
		{name: "negative exponent", input: "25E-2", wantValid: true, want: 0.25},
		{name: "surrounding whitespace", input: "  42  ", wantValid: true, want: 42},

		{name: "empty", input: "", wantValid: false},
		{name: "whitespace only", input: "   ", wantValid: false},
		{name: "letters", input: "abc", wantValid: false},
		{name: "currency symbol", input: "$12", wantValid: false},
		{name: "thousands separator", input: "1,234", wantValid: false},
		{name: "decimal comma", input: "12,5", wantValid: false},
		{name: "lone sign", input: "-", wantValid: false},
		{name: "lone dot", input: ".", wantValid: false},
		{name: "hex", input: "0x1F", wantValid: false},
		{name: "infinity word", input: "inf", wantValid: false},
		{name: "exponent overflow", input: "1e999", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantValid {
				t.Fatalf("ParseNumber(%q) valid = %v, want %v", tt.input, ok, tt.wantValid)
			}
			if ok && got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseDate Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	date := func(y int, m time.Month, d, hh, mm, ss int) time.Time {
		return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
	}

	tests := []struct {
		name      string
		input     string
		wantValid bool
		want      time.Time
	}{
		{name: "ISO date", input: "2024-01-15", wantValid: true, want: date(2024, 1, 15, 0, 0, 0)},
		{name: "ISO slashes", input: "2024/01/15", wantValid: true, want: date(2024, 1, 15, 0, 0, 0)},
		{name: "US date", input: "01/15/2024", wantValid: true, want: date(2024, 1, 15, 0, 0, 0)},
		{name: "US single digits", input: "1/5/2024", wantValid: true, want: date(2024, 1, 5, 0, 0, 0)},
		{name: "ambiguous is month first", input: "03/04/2024", wantValid: true, want: date(2024, 3, 4, 0, 0, 0)},
		{name: "day first fallback", input: "25/12/2024", wantValid: true, want: date(2024, 12, 25, 0, 0, 0)},
		{name: "dotted day first", input: "15.01.2024", wantValid: true, want: date(2024, 1, 15, 0, 0, 0)},
		{name: "month name", input: "Jan 15, 2024", wantValid: true, want: date(2024, 1, 15, 0, 0, 0)},
		{name: "long month name", input: "January 15, 2024", wantValid: true, want: date(2024, 1, 15, 0, 0, 0)},
		{name: "day month year", input: "15 Jan 2024", wantValid: true, want: date(2024, 1, 15, 0, 0, 0)},
		{name: "compact", input: "20240115", wantValid: true, want: date(2024, 1, 15, 0, 0, 0)},
		{name: "timestamp", input: "2024-01-15 13:45:10", wantValid: true, want: date(2024, 1, 15, 13, 45, 10)},
		{name: "ISO T timestamp", input: "2024-01-15T13:45:10", wantValid: true, want: date(2024, 1, 15, 13, 45, 10)},
		{name: "US timestamp", input: "1/15/2024 13:45", wantValid: true, want: date(2024, 1, 15, 13, 45, 0)},
		{name: "two digit year", input: "1/5/24", wantValid: true, want: date(2024, 1, 5, 0, 0, 0)},
		{name: "whitespace", input: "  2024-01-15  ", wantValid: true, want: date(2024, 1, 15, 0, 0, 0)},

		{name: "empty", input: "", wantValid: false},
		{name: "text", input: "not a date", wantValid: false},
		{name: "plain number", input: "42", wantValid: false},
		{name: "invalid month", input: "2024-13-01", wantValid: false},
		{name: "invalid day", input: "2024-02-30", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.wantValid {
				t.Fatalf("ParseDate(%q) valid = %v, want %v", tt.input, ok, tt.wantValid)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate_OffsetDropped(t *testing.T) {
	// The wall clock is kept, the offset is discarded.
	got, ok := ParseDate("2024-01-15T10:00:00+05:00")
	if !ok {
		t.Fatal("expected RFC3339 timestamp to parse")
	}
	want := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("got %v, want %v", got, want)
	}

	utc, _ := ParseDate("2024-01-15T10:00:00Z")
	if !got.Equal(utc) {
		t.Errorf("offset and UTC timestamps with the same wall clock differ: %v vs %v", got, utc)
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "2024-01-15"},
		{time.Date(2024, 1, 15, 9, 5, 0, 0, time.UTC), "2024-01-15 09:05:00"},
		{time.Date(2024, 1, 15, 9, 5, 0, 500_000_000, time.UTC), "2024-01-15 09:05:00.5"},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.in); got != tt.want {
			t.Errorf("FormatDate(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := map[float64]string{
		3:       "3",
		2.5:     "2.5",
		-0.125:  "-0.125",
		1500000: "1500000",
	}
	for in, want := range tests {
		if got := FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%v) = %q, want %q", in, got, want)
		}
	}
}
