package utils

import (
	"fmt"
	"time"
)

// DayLayout is the canonical calendar-day format used everywhere a date
// crosses a boundary: assignment rows, streak walks, history queries.
const DayLayout = "2006-01-02"

// Clock abstracts time.Now so services can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// DayOf derives the calendar day of an instant using the server-local
// timezone. Every call site that turns a timestamp into a day must go
// through here; mixing UTC and local derivation assigns users two
// challenges for one perceived day near midnight.
func DayOf(t time.Time) string {
	return t.In(time.Local).Format(DayLayout)
}

// ParseDay validates a YYYY-MM-DD day key and returns it normalized.
func ParseDay(s string) (string, error) {
	t, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		return "", fmt.Errorf("invalid day %q: must be YYYY-MM-DD", s)
	}
	return t.Format(DayLayout), nil
}

// AddDays shifts a day key by n calendar days (n may be negative).
func AddDays(day string, n int) string {
	t, err := time.ParseInLocation(DayLayout, day, time.UTC)
	if err != nil {
		return day
	}
	return t.AddDate(0, 0, n).Format(DayLayout)
}

// DaysBetween returns b minus a in whole calendar days. Day keys are
// compared as dates pinned to UTC midnight so the result is exact
// regardless of DST transitions.
func DaysBetween(a, b string) int {
	ta, errA := time.ParseInLocation(DayLayout, a, time.UTC)
	tb, errB := time.ParseInLocation(DayLayout, b, time.UTC)
	if errA != nil || errB != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}
