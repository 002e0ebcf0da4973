// Package replay drives a chronological Glicko-2 replay for one tau.
package replay

import (
	"fmt"

	"github.com/okian/wrestlerank/internal/domain/glicko"
	"github.com/okian/wrestlerank/internal/domain/model"
	"github.com/okian/wrestlerank/internal/domain/period"
	"github.com/okian/wrestlerank/pkg/metrics"
)

// Ledger owns the rating universe of a single run. It is not safe for
// concurrent use; independent runs use independent ledgers.
//
// Inactivity decay is applied lazily: each state remembers the last period
// it has been decayed through and is caught up, one application per empty
// period, right before it is read. The result is identical to decaying
// every bucket eagerly at every period.
type Ledger struct {
	engine  *glicko.Engine
	states  map[model.Bucket]model.RatingState
	current model.Month
	started bool
}

// AdvanceStats describes the work done for one period.
type AdvanceStats struct {
	Bouts            int
	Buckets          int
	SolverIterations int
	SolverCapHits    int
}

// NewLedger creates an empty ledger updated by engine.
func NewLedger(engine *glicko.Engine) *Ledger {
	return &Ledger{engine: engine, states: make(map[model.Bucket]model.RatingState)}
}

// Len returns the number of buckets with history.
func (l *Ledger) Len() int { return len(l.states) }

// Current returns the last advanced period.
func (l *Ledger) Current() (model.Month, bool) { return l.current, l.started }

type pairing struct {
	opponent model.Bucket
	score    float64
}

// Advance applies one period: every participating bucket is caught up to the
// previous period, snapshotted, then updated once from all of its bouts
// against the snapshotted opponents. Updates are written back together.
//
// Advancing the current month again applies a continuation batch on top of
// the month's earlier update. Earlier months are refused.
func (l *Ledger) Advance(p period.Period) (AdvanceStats, error) {
	if l.started && p.Month < l.current {
		return AdvanceStats{}, fmt.Errorf("%w: %s after %s", ErrOutOfOrder, p.Month, l.current)
	}
	l.current, l.started = p.Month, true

	var order []model.Bucket
	pairings := make(map[model.Bucket][]pairing)
	for _, b := range p.Bouts {
		w, lo := b.WinnerBucket(), b.LoserBucket()
		for _, bk := range [2]model.Bucket{w, lo} {
			if _, ok := pairings[bk]; !ok {
				order = append(order, bk)
			}
		}
		pairings[w] = append(pairings[w], pairing{opponent: lo, score: 1})
		pairings[lo] = append(pairings[lo], pairing{opponent: w, score: 0})
	}

	pre := make(map[model.Bucket]model.RatingState, len(order))
	for _, bk := range order {
		pre[bk] = l.view(bk, p.Month)
	}

	stats := AdvanceStats{Bouts: len(p.Bouts), Buckets: len(order)}
	updated := make([]model.RatingState, len(order))
	for i, bk := range order {
		outcomes := make([]glicko.Outcome, 0, len(pairings[bk]))
		for _, pr := range pairings[bk] {
			outcomes = append(outcomes, glicko.Outcome{Opponent: pre[pr.opponent], Score: pr.score})
		}
		next, solve := l.engine.Update(pre[bk], outcomes)
		next.LastActive = p.Month
		next.Through = p.Month
		updated[i] = next

		stats.SolverIterations += solve.Iterations
		metrics.RecordSolverIterations(solve.Iterations)
		if !solve.Converged {
			stats.SolverCapHits++
			metrics.RecordSolverCapHit()
		}
	}

	for i, bk := range order {
		l.states[bk] = updated[i]
	}
	return stats, nil
}

// View returns the state of b as it stands at the start of month m, with
// every pending decay before m applied. Unknown buckets get the default state.
// The ledger is not modified.
func (l *Ledger) View(b model.Bucket, m model.Month) (model.RatingState, bool) {
	_, ok := l.states[b]
	return l.view(b, m), ok
}

func (l *Ledger) view(b model.Bucket, m model.Month) model.RatingState {
	s, ok := l.states[b]
	if !ok {
		s = model.NewRatingState()
		s.Through = m.Prev()
		return s
	}
	return l.catchUp(s, m)
}

// catchUp decays s through the month before m.
func (l *Ledger) catchUp(s model.RatingState, m model.Month) model.RatingState {
	if k := period.Elapsed(s.Through, m); k > 0 {
		s = l.engine.DecayN(s, k)
		s.Through = m.Prev()
	}
	return s
}

// CatchUp applies pending decay to every bucket through month through.
func (l *Ledger) CatchUp(through model.Month) {
	for bk, s := range l.states {
		l.states[bk] = l.catchUp(s, through.Next())
	}
}

// States returns a copy of the current states.
func (l *Ledger) States() map[model.Bucket]model.RatingState {
	out := make(map[model.Bucket]model.RatingState, len(l.states))
	for bk, s := range l.states {
		out[bk] = s
	}
	return out
}
