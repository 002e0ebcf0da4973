// Package matchsource loads raw matches from a relational match table or a
// JSON export. Sources do not validate: malformed rows are passed through so
// the match log can count them.
package matchsource

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/wrestlerank/internal/domain/model"
)

// Source yields raw matches in no particular order.
type Source interface {
	Matches(ctx context.Context, r Range) ([]model.Match, error)
}

// Range restricts matches by date. Zero bounds are open; both bounds are inclusive.
type Range struct {
	Start time.Time
	End   time.Time
}

// Validate rejects a range whose end precedes its start.
func (r Range) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidRange,
			r.End.Format(time.RFC3339), r.Start.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t lies in the range. Undated matches are kept so
// that they are reported downstream.
func (r Range) Contains(t time.Time) bool {
	if t.IsZero() {
		return true
	}
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// parseDate accepts the timestamp layouts found in match exports. An
// unparseable value yields the zero time.
func parseDate(raw string) time.Time {
	t, err := model.ParseTimestamp(raw, false)
	if err != nil {
		return time.Time{}
	}
	return t
}
