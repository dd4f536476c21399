package attendance

import (
	"fmt"
	"strings"
	"time"

	"attendance-portal/internal/apperr"
)

// DateKey decides how a submission date becomes part of the upsert key.
type DateKey int

const (
	// DateExact matches the submitted timestamp verbatim.
	DateExact DateKey = iota
	// DateDay truncates to the calendar day written by the client.
	DateDay
)

// ParseDateKey maps the ATTENDANCE_DATE_KEY setting onto a DateKey.
func ParseDateKey(s string) (DateKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return DateExact, nil
	case "day":
		return DateDay, nil
	}
	return 0, fmt.Errorf("unknown date key mode %q", s)
}

func (k DateKey) String() string {
	if k == DateDay {
		return "day"
	}
	return "exact"
}

// Normalize returns the key value stored and matched for t.
func (k DateKey) Normalize(t time.Time) time.Time {
	if k == DateDay {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return t
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate accepts RFC 3339, naive ISO timestamps (read as UTC) and bare dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validation("invalid date %q", s)
}
