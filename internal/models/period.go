package models

import (
	"fmt"
	"time"
)

const periodLayout = "2006-01"

// ParsePeriod validates a YYYY-MM billing period marker.
func ParsePeriod(raw string) (string, error) {
	t, err := time.Parse(periodLayout, raw)
	if err != nil {
		return "", fmt.Errorf("invalid period %q: expected YYYY-MM", raw)
	}
	return t.Format(periodLayout), nil
}

// PeriodOf derives the billing period marker from a date.
func PeriodOf(t time.Time) string {
	return t.Format(periodLayout)
}

// PeriodStart returns midnight UTC on the first day of the period.
func PeriodStart(period string) (time.Time, error) {
	t, err := time.Parse(periodLayout, period)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid period %q: expected YYYY-MM", period)
	}
	return t.UTC(), nil
}

// DueDateFor clamps a 1-31 day-of-month onto the period, pulling back to the
// month's last day when the configured day overflows (e.g. 31 in February).
func DueDateFor(period string, day int) (time.Time, error) {
	start, err := PeriodStart(period)
	if err != nil {
		return time.Time{}, err
	}
	if day < 1 {
		day = 1
	}
	lastDay := start.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(start.Year(), start.Month(), day, 0, 0, 0, 0, time.UTC), nil
}
