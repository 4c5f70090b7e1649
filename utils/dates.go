package utils

import (
	"fmt"
	"time"
)

// DayLayout is the day-granularity key used for daily stats rows.
const DayLayout = "2006-01-02"

// ParseDay parses a YYYY-MM-DD key as local midnight in loc.
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DayLayout, day, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q, expected YYYY-MM-DD", day)
	}
	return t, nil
}

// DayOf truncates t to its calendar day in loc.
func DayOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayLayout)
}

// DayBounds returns the half-open interval [start, end) covering day in loc.
// AddDate keeps DST days at their real length.
func DayBounds(day string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := ParseDay(day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1), nil
}

func ShiftDay(day string, days int) (string, error) {
	t, err := time.Parse(DayLayout, day)
	if err != nil {
		return "", fmt.Errorf("invalid day %q, expected YYYY-MM-DD", day)
	}
	return t.AddDate(0, 0, days).Format(DayLayout), nil
}

// StartOfWeek returns the Monday of t's week at midnight.
func StartOfWeek(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	tt := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return tt.AddDate(0, 0, -(wd - 1))
}
