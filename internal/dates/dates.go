// Package dates works on fixed-width YYYY-MM-DD calendar strings. Because the
// representation is fixed-width and zero-padded, date-only ordering is plain
// lexical string comparison.
package dates

import (
	"math"
	"time"
)

const Layout = "2006-01-02"

// Valid reports whether s is a well-formed YYYY-MM-DD date.
func Valid(s string) bool {
	if len(s) != len(Layout) {
		return false
	}
	_, err := time.Parse(Layout, s)
	return err == nil
}

// DateOf extracts the calendar date from an RFC3339 timestamp. Returns ""
// when the timestamp is missing or malformed.
func DateOf(ts string) string {
	if len(ts) < len(Layout) {
		return ""
	}
	d := ts[:len(Layout)]
	if !Valid(d) {
		return ""
	}
	return d
}

// Next returns the following calendar day using local calendar arithmetic.
func Next(s string) string {
	t, err := time.ParseInLocation(Layout, s, time.Local)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, 1).Format(Layout)
}

// Range generates the inclusive day list from from to to, capped at max
// generated days as a runaway guard. Malformed or inverted bounds yield an
// empty list rather than a loop.
func Range(from, to string, max int) []string {
	if !Valid(from) || !Valid(to) || from > to {
		return nil
	}
	var days []string
	for d := from; d != "" && d <= to && len(days) < max; d = Next(d) {
		days = append(days, d)
	}
	return days
}

// RoundedDaysBetween returns the whole-day difference between two RFC3339
// timestamps, rounded per item. Callers that average durations must average
// these integers, not raw differences.
func RoundedDaysBetween(fromTS, toTS string) (int, bool) {
	from, err := time.Parse(time.RFC3339, fromTS)
	if err != nil {
		return 0, false
	}
	to, err := time.Parse(time.RFC3339, toTS)
	if err != nil {
		return 0, false
	}
	return int(math.Round(to.Sub(from).Hours() / 24)), true
}
