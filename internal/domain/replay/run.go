package replay

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/wrestlerank/internal/domain/glicko"
	"github.com/okian/wrestlerank/internal/domain/model"
	"github.com/okian/wrestlerank/internal/domain/period"
	"github.com/okian/wrestlerank/pkg/logger"
	"github.com/okian/wrestlerank/pkg/metrics"
)

// Run replays periods in order on a fresh ledger and returns the final snapshot.
// An empty period list produces an empty snapshot.
func Run(ctx context.Context, engine *glicko.Engine, periods []period.Period, opts ...Option) (*model.Snapshot, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	cfg := runConfig{runID: uuid.NewString()}
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	tau := strconv.FormatFloat(engine.Tau(), 'f', 3, 64)
	log := logger.Get().Named("replay")

	ledger := NewLedger(engine)
	for _, p := range periods {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("replay tau=%s: %w", tau, err)
		}
		stats, err := ledger.Advance(p)
		if err != nil {
			return nil, fmt.Errorf("replay tau=%s: %w", tau, err)
		}
		metrics.RecordPeriodProcessed()
		metrics.RecordMatchesApplied(stats.Bouts)
	}

	snap := &model.Snapshot{
		RunID:       cfg.runID,
		Tau:         engine.Tau(),
		GeneratedAt: time.Now().UTC(),
		States:      map[model.Bucket]model.RatingState{},
		Report:      cfg.report,
	}

	first, last, ok := period.Span(periods)
	if ok {
		if cfg.hasHorizon && cfg.horizon > last {
			last = cfg.horizon
		}
		ledger.CatchUp(last)
		snap.PeriodStart = first
		snap.PeriodEnd = last
		snap.TotalPeriods = len(period.Range(first, last))
		snap.States = ledger.States()
	}

	elapsed := time.Since(start)
	metrics.RecordRun(tau, float64(elapsed.Milliseconds()))
	metrics.UpdateBucketsRated(tau, snap.Len())
	log.Debug(ctx, "replay finished",
		logger.String("tau", tau),
		logger.Int("periods", len(periods)),
		logger.Int("buckets", snap.Len()),
		logger.String("duration", elapsed.String()),
	)
	return snap, nil
}
