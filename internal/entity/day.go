package entity

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the calendar-day format used for login dates.
const DayLayout = "2006-01-02"

// FormatDay renders t as a calendar day in t's own location.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD string into midnight UTC of that day.
func ParseDay(day string) (time.Time, error) {
	t, err := time.Parse(DayLayout, strings.TrimSpace(day))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, day)
	}
	return t, nil
}

// AddDays shifts a calendar day string by n days.
func AddDays(day string, n int) (string, error) {
	t, err := ParseDay(day)
	if err != nil {
		return "", err
	}
	return FormatDay(t.AddDate(0, 0, n)), nil
}
