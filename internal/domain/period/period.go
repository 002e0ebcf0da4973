// Package period segments a validated match stream into calendar-month rating periods.
package period

import (
	"sort"

	"github.com/okian/wrestlerank/internal/domain/model"
)

// Period holds every bout of one calendar month in deterministic order.
type Period struct {
	Month model.Month
	Bouts []model.Bout
}

// Segment orders bouts by (date, match id) and groups them by UTC calendar month.
// Only months that contain bouts are returned, in ascending order. The input
// slice is not modified.
func Segment(bouts []model.Bout) []Period {
	if len(bouts) == 0 {
		return nil
	}
	sorted := make([]model.Bout, len(bouts))
	copy(sorted, bouts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].MatchID < sorted[j].MatchID
	})

	var periods []Period
	for _, b := range sorted {
		b.Month = model.MonthOf(b.Date)
		if n := len(periods); n == 0 || periods[n-1].Month != b.Month {
			periods = append(periods, Period{Month: b.Month})
		}
		last := &periods[len(periods)-1]
		last.Bouts = append(last.Bouts, b)
	}
	return periods
}

// Elapsed returns the number of empty periods strictly between last and current.
// Adjacent, equal or reversed months yield zero.
func Elapsed(last, current model.Month) int {
	if gap := int(current-last) - 1; gap > 0 {
		return gap
	}
	return 0
}

// Range enumerates every month from first to last inclusive.
func Range(first, last model.Month) []model.Month {
	if last < first {
		return nil
	}
	out := make([]model.Month, 0, int(last-first)+1)
	for m := first; m <= last; m = m.Next() {
		out = append(out, m)
	}
	return out
}

// Span returns the first and last months covered by periods.
func Span(periods []Period) (first, last model.Month, ok bool) {
	if len(periods) == 0 {
		return 0, 0, false
	}
	return periods[0].Month, periods[len(periods)-1].Month, true
}

// Count returns the number of bouts across periods.
func Count(periods []Period) int {
	n := 0
	for _, p := range periods {
		n += len(p.Bouts)
	}
	return n
}
