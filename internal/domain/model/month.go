package model

import (
	"fmt"
	"strings"
	"time"
)

// Month identifies a rating period: one UTC calendar month.
// Months are totally ordered and support integer arithmetic.
type Month int

// MonthOf returns the rating period containing t.
func MonthOf(t time.Time) Month {
	u := t.UTC()
	return Month(u.Year()*12 + int(u.Month()) - 1)
}

// ParseMonth accepts "YYYY-MM" or "YYYY-MM-DD" and returns the containing month.
func ParseMonth(s string) (Month, error) {
	for _, layout := range []string{"2006-01", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthOf(t), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
}

// Year returns the calendar year of m.
func (m Month) Year() int { return int(m) / 12 }

// Calendar returns the calendar month of m.
func (m Month) Calendar() time.Month { return time.Month(int(m)%12 + 1) }

// Start returns the first instant of m.
func (m Month) Start() time.Time {
	return time.Date(m.Year(), m.Calendar(), 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the following month.
func (m Month) Next() Month { return m + 1 }

// Prev returns the preceding month.
func (m Month) Prev() Month { return m - 1 }

// String formats m as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year(), int(m.Calendar()))
}

// Date formats the first day of m as YYYY-MM-DD.
func (m Month) Date() string {
	return m.Start().Format(time.DateOnly)
}

// MarshalText implements encoding.TextMarshaler.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseTimestamp accepts RFC 3339, a zone-less ISO timestamp or a bare date.
// A bare date resolves to its first instant, or to its last instant when
// endOfDay is set, so that dates act as inclusive calendar bounds.
func ParseTimestamp(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		if endOfDay {
			return t.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
		}
		return t, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}
