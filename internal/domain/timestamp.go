package domain

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayouts are tried in order. Offset-bearing layouts come first so
// that an offset is never reported as trailing garbage.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp as accepted by the ingestion
// sources and the API, then discards any timezone offset (see Naive).
// A space may be used instead of 'T' between date and time.
func ParseTimestamp(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + s[11:]
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Naive(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
}

// Naive drops the location of t while keeping its wall-clock reading, so
// 09:00+05:00 becomes 09:00 (not 04:00). All stored and compared timestamps
// are naive and represented in UTC.
func Naive(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// InRange reports whether start <= t <= end using naive comparison.
func InRange(t, start, end time.Time) bool {
	n := Naive(t)
	return !n.Before(Naive(start)) && !n.After(Naive(end))
}
