package core

import (
	"fmt"
	"strings"
	"time"
)

// MonthStart truncates a timestamp to the first day of its calendar month in UTC.
// This is the grouping key for all monthly resampling.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// dateLayouts are the accepted input date formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01",
	"01/02/2006",
}

// ParseDate parses a date string using the accepted layouts.
// A parse failure is a hard error: downstream alignment cannot proceed without dates.
func ParseDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// FormatMonth renders a month-start date for artifact tables.
func FormatMonth(t time.Time) string {
	return t.Format("2006-01-02")
}
