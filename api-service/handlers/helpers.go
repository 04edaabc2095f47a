package handlers

import (
	"time"
)

// parseDate accepts the date-only form the mobile client sends, falling
// back to RFC 3339 timestamps.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
