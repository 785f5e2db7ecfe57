package core

// convert.go parses raw CSV text into typed cell values.
//
// Parsing is deliberately strict for numbers (plain decimal notation only, no
// currency or grouping symbols) and broad for dates:
//   - ISO dates and timestamps, with or without a UTC offset
//   - US month-first dates, then day-first dates when month-first fails
//   - Spelled-out month names
//   - 2-digit years, resolved with TwoDigitYearPivot
//
// Every parsed time is made timezone-naive: the wall clock is kept and the
// offset dropped.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates a locale-independent decimal number.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

var (
	dateTimeLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05 -0700",
		"2006-01-02 15:04:05 MST",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006/01/02 15:04:05",
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
		"1/2/2006 3:04 PM",
		"1/2/2006 3:04:05 PM",
		time.RFC1123Z,
		time.RFC1123,
	}
	// Month-first layouts are tried before day-first ones, so "03/04/2024"
	// is March 4th and "25/12/2024" still parses as Christmas.
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02", "2006-1-2", "2006/1/2",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006",
		"Jan 2, 2006", "January 2, 2006", "Jan 2 2006", "2 Jan 2006", "2 January 2006",
		"02-Jan-2006", "2-Jan-2006",
		"20060102",
	}
	dayFirstLayouts = []string{
		"2/1/2006", "02/01/2006", "2-1-2006", "02-01-2006",
		"2.1.2006", "02.01.2006",
		"2/1/2006 15:04", "02/01/2006 15:04:05", "02.01.2006 15:04",
	}
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "2.1.06", "02.01.06", "2-Jan-06",
	}
)

// IsMissing reports whether a raw value counts as missing.
// Only empty or whitespace-only values are missing.
func IsMissing(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ParseNumber parses a locale-independent decimal number: optional sign,
// optional decimal point, optional exponent. Surrounding whitespace is ignored.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !numericRegex.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out-of-range exponents land here.
		return 0, false
	}
	return v, true
}

// ParseDate parses a date or timestamp in any supported layout and returns a
// timezone-naive time (UTC location, original wall clock).
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layouts := range [][]string{dateTimeLayouts, fourDigitYearLayouts, dayFirstLayouts} {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return naive(t), true
			}
		}
	}

	// Try 2-digit year layouts with pivot year adjustment
	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return naive(t), true
		}
	}

	return time.Time{}, false
}

// naive drops the location of t while keeping its wall clock.
func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
