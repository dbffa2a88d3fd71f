package domain

import (
	"fmt"
	"strings"
	"time"
)

// ParseTime parses an RFC3339 timestamp, accepting both the "Z" and the
// "+00:00" UTC suffix forms, and returns it in UTC.
func ParseTime(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, NewValidation("time", "empty timestamp")
	}
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	t, err := time.Parse("2006-01-02T15:04:05-07:00", s)
	if err != nil {
		// Seconds are optional in chat input ("2026-03-02T09:00+00:00").
		t, err = time.Parse("2006-01-02T15:04-07:00", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("domain: parse time %q: %w", value, err)
		}
	}
	return t.UTC(), nil
}

// FormatTime renders a timestamp as RFC3339 UTC with the "Z" suffix, the wire
// form used across storage keys and chat payloads.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
