// Package timeutil provides date helpers shared by the garment domain:
// purchase dates are calendar days, wash and retirement stamps are instants.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the wire format of calendar dates (purchase dates).
const DateLayout = "2006-01-02"

// Day is the length of one lifespan day.
const Day = 24 * time.Hour

// Clock returns the current time. Tests inject fixed clocks.
type Clock func() time.Time

// SystemClock returns the current UTC time.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// Fixed returns a Clock that always reports t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}

// Date creates a UTC midnight time with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// StartOfDay returns the start of the day (00:00:00) in UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns floor((to - from) / 1 day). The result is negative
// when to is before from.
func DaysBetween(from, to time.Time) int {
	return int(math.Floor(float64(to.Sub(from)) / float64(Day)))
}

// ParseDate parses a YYYY-MM-DD calendar date. RFC 3339 timestamps are
// accepted too and truncated to their UTC day.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("timeutil: empty date")
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: invalid date %q: expected %s", value, DateLayout)
	}
	return StartOfDay(t), nil
}

// FormatDate formats t as YYYY-MM-DD in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
