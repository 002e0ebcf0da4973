// Package compare replays the same periods once per tau on isolated ledgers.
package compare

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/okian/wrestlerank/internal/adapters/worker"
	"github.com/okian/wrestlerank/internal/domain/glicko"
	"github.com/okian/wrestlerank/internal/domain/model"
	"github.com/okian/wrestlerank/internal/domain/period"
	"github.com/okian/wrestlerank/internal/domain/replay"
	"github.com/okian/wrestlerank/pkg/logger"
)

const (
	tauPrecision = 1e6
	// LookupTolerance is the absolute tolerance used to match a tau to a run.
	LookupTolerance = 1e-9
)

// RoundTau rounds tau to the six decimals runs are keyed by.
func RoundTau(tau float64) float64 {
	return math.Round(tau*tauPrecision) / tauPrecision
}

// NormalizeTaus rounds taus to six decimals, removes duplicates and sorts
// them. An empty list yields the default tau.
func NormalizeTaus(taus []float64) ([]float64, error) {
	if len(taus) == 0 {
		return []float64{glicko.DefaultTau}, nil
	}
	set := make(map[float64]struct{}, len(taus))
	for _, t := range taus {
		if t <= 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTau, t)
		}
		set[RoundTau(t)] = struct{}{}
	}
	out := make([]float64, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Float64s(out)
	return out, nil
}

// Runs holds one snapshot per tau in ascending tau order. None is authoritative.
type Runs []*model.Snapshot

// Lookup returns the run whose tau matches tau, rounded with RoundTau,
// within LookupTolerance.
func (r Runs) Lookup(tau float64) (*model.Snapshot, bool) {
	tau = RoundTau(tau)
	for _, s := range r {
		if math.Abs(s.Tau-tau) <= LookupTolerance {
			return s, true
		}
	}
	return nil, false
}

// Taus lists the taus that were run.
func (r Runs) Taus() []float64 {
	out := make([]float64, len(r))
	for i, s := range r {
		out[i] = s.Tau
	}
	return out
}

// Comparator fans replays out across a worker pool.
type Comparator struct {
	pool       *worker.Pool
	engineOpts []glicko.Option
	logger     logger.Logger
}

// New creates a Comparator that schedules runs on pool.
func New(pool *worker.Pool, opts ...Option) *Comparator {
	c := &Comparator{pool: pool, logger: logger.Get()}
	for _, opt := range opts {
		opt(c)
	}
	if c.pool == nil {
		c.pool = worker.NewPool()
	}
	c.logger = c.logger.Named("compare")
	return c
}

// Engine builds the engine used for tau with the comparator's settings.
func (c *Comparator) Engine(tau float64) *glicko.Engine {
	opts := append(append([]glicko.Option{}, c.engineOpts...), glicko.WithTau(tau))
	return glicko.New(opts...)
}

// Run replays periods once per normalized tau. Each replay owns a private
// ledger; results are combined after every replay has finished.
func (c *Comparator) Run(ctx context.Context, periods []period.Period, taus []float64, opts ...replay.Option) (Runs, error) {
	taus, err := NormalizeTaus(taus)
	if err != nil {
		return nil, err
	}

	snaps, err := worker.Map(ctx, c.pool, len(taus), func(ctx context.Context, i int) (*model.Snapshot, error) {
		return replay.Run(ctx, c.Engine(taus[i]), periods, opts...)
	})
	if err != nil {
		return nil, fmt.Errorf("compare taus: %w", err)
	}

	for _, s := range snaps {
		c.logger.Info(ctx, "tau run complete",
			logger.String("tau", fmt.Sprintf("%.3f", s.Tau)),
			logger.Int("weight_classes", countWeights(s)),
			logger.Int("buckets", s.Len()),
			logger.String("run_id", s.RunID),
		)
	}
	return Runs(snaps), nil
}

func countWeights(s *model.Snapshot) int {
	weights := map[int]struct{}{}
	for b := range s.States {
		weights[b.WeightClass] = struct{}{}
	}
	return len(weights)
}
