package catalog

import (
	"fmt"
	"time"
)

// DefaultWindow formats the default month-grain filter value for a given
// max-available-date reported by the server: the 11 months before maxDate's
// month plus the month itself, e.g. maxDate 2025-06-15 → "2024-07,2025-06".
// The two endpoints are joined with a comma because the aggregation service
// treats a two-element month filter as an inclusive range.
func DefaultWindow(maxDate time.Time) string {
	end := time.Date(maxDate.Year(), maxDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, -11, 0)
	return fmt.Sprintf("%s,%s", start.Format("2006-01"), end.Format("2006-01"))
}

// ParseMaxDate parses the max-available-date string reported by the
// aggregation service metadata endpoint.
func ParseMaxDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse max date %q: %w", s, err)
	}
	return t, nil
}
