// Package dates handles calendar days. A day is stored as a SQL date and carried in Go as
// midnight UTC of that calendar day, whatever business timezone produced it.
package dates

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// Layout is the wire format of a calendar day.
const Layout = "2006-01-02"

// ParseDay parses a YYYY-MM-DD string into a normalized day.
func ParseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	t, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return t, nil
}

// Normalize drops the clock part of t, keeping the calendar day as seen in t's own location.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day in loc.
func Today(loc *time.Location) time.Time {
	return TodayAt(time.Now(), loc)
}

// TodayAt returns the calendar day of instant in loc.
func TodayAt(instant time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Normalize(now.With(instant.In(loc)).BeginningOfDay())
}

// Range returns the half-open UTC interval [start, end) covering day.
func Range(day time.Time) (time.Time, time.Time) {
	start := Normalize(day)
	return start, start.AddDate(0, 0, 1)
}

// InstantRange returns the half-open interval of real instants covering day in loc. It is used
// for columns holding timestamps rather than dates, such as created_at.
func InstantRange(day time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start.UTC(), now.With(start).EndOfDay().Add(time.Nanosecond).UTC()
}

// Format renders a day in the wire format.
func Format(day time.Time) string {
	return day.Format(Layout)
}
