// Package service ties match ingestion, rating replay, artifacts,
// persistence and the served leaderboard together.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/wrestlerank/internal/adapters/matchsource"
	"github.com/okian/wrestlerank/internal/adapters/repository"
	"github.com/okian/wrestlerank/internal/adapters/snapshot"
	"github.com/okian/wrestlerank/internal/adapters/worker"
	"github.com/okian/wrestlerank/internal/domain/glicko"
	"github.com/okian/wrestlerank/internal/domain/matchlog"
	"github.com/okian/wrestlerank/internal/domain/model"
	"github.com/okian/wrestlerank/pkg/logger"
)

// Service runs ratings and serves the persisted result.
type Service struct {
	mu sync.RWMutex

	source     matchsource.Source
	matchRange matchsource.Range
	snapshots  snapshot.Store
	ranking    repository.Store
	pool       *worker.Pool

	taus            []float64
	persistTau      float64
	outputDir       string
	horizon         *model.Month
	engineOpts      []glicko.Option
	refreshInterval time.Duration
	now             func() time.Time

	// State
	started     bool
	stopCh      chan struct{}
	done        chan struct{}
	lastRefresh time.Time
	lastRun     *RunResult

	logger logger.Logger
}

// New constructs a Service. Without options it rates and persists tau 0.5
// and keeps an empty ranking.
func New(opts ...Option) *Service {
	s := &Service{
		persistTau: glicko.DefaultTau,
		ranking:    repository.NewTreapStore(),
		now:        time.Now,
		logger:     logger.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pool == nil {
		s.pool = worker.NewPool(worker.WithName("tau-pool"), worker.WithLogger(s.logger))
	}
	s.logger = s.logger.Named("service")
	return s
}

// Ranking returns the served index.
func (s *Service) Ranking() repository.Store { return s.ranking }

// load reads and validates the configured matches.
func (s *Service) load(ctx context.Context) ([]model.Bout, model.Report, error) {
	if s.source == nil {
		return nil, model.Report{}, ErrNoSource
	}
	matches, err := s.source.Matches(ctx, s.matchRange)
	if err != nil {
		return nil, model.Report{}, fmt.Errorf("load matches: %w", err)
	}
	bouts, report := matchlog.Filter(ctx, matches)
	s.logger.Info(ctx, "matches loaded",
		logger.Int("total", report.Total),
		logger.Int("accepted", report.Accepted),
		logger.Int("excluded", report.Excluded),
		logger.Int("rejected", report.RejectedTotal()),
	)
	return bouts, report, nil
}

// Start loads the ratings table into the ranking and, when configured,
// keeps reloading it in the background.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn(ctx, "initial refresh failed", logger.Error(err))
	}

	go s.refreshLoop(context.WithoutCancel(ctx))
	s.logger.Info(ctx, "leaderboard service started",
		logger.Int("buckets", s.ranking.Count(ctx)),
		logger.String("refresh_interval", s.refreshInterval.String()),
	)
	return nil
}

func (s *Service) refreshLoop(ctx context.Context) {
	defer close(s.done)
	if s.refreshInterval <= 0 {
		<-s.stopCh
		return
	}
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn(ctx, "refresh failed", logger.Error(err))
			}
		}
	}
}

// Stop ends background refreshes.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	<-done
	s.logger.Info(context.Background(), "leaderboard service stopped")
}

// Refresh replaces the ranking with the persisted ratings table.
func (s *Service) Refresh(ctx context.Context) error {
	if s.snapshots == nil {
		return ErrNoSnapshot
	}
	rows, err := s.snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}
	if err := s.ranking.Replace(ctx, rows); err != nil {
		return fmt.Errorf("index ratings: %w", err)
	}
	s.mu.Lock()
	s.lastRefresh = s.now()
	s.mu.Unlock()
	s.logger.Debug(ctx, "ranking refreshed", logger.Int("rows", len(rows)))
	return nil
}

// Stats implements the API stats provider.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":        s.started,
		"buckets":        s.ranking.Count(ctx),
		"weight_classes": len(s.ranking.Weights(ctx)),
		"workers":        s.pool.Size(),
	}
	if !s.lastRefresh.IsZero() {
		stats["last_refresh"] = s.lastRefresh.UTC().Format(time.RFC3339)
	}
	if r := s.lastRun; r != nil {
		stats["last_run"] = map[string]any{
			"taus":          r.Runs.Taus(),
			"total_periods": r.Periods,
			"matches":       r.Report.Total,
			"accepted":      r.Report.Accepted,
		}
	}
	return stats
}
