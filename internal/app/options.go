package service

import (
	"time"

	"github.com/okian/wrestlerank/internal/adapters/matchsource"
	"github.com/okian/wrestlerank/internal/adapters/repository"
	"github.com/okian/wrestlerank/internal/adapters/snapshot"
	"github.com/okian/wrestlerank/internal/adapters/worker"
	"github.com/okian/wrestlerank/internal/domain/glicko"
	"github.com/okian/wrestlerank/internal/domain/model"
	"github.com/okian/wrestlerank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets where matches are read from.
func WithSource(src matchsource.Source) Option {
	return func(s *Service) { s.source = src }
}

// WithRange restricts the matches read from the source.
func WithRange(r matchsource.Range) Option {
	return func(s *Service) { s.matchRange = r }
}

// WithSnapshotStore sets the ratings table backend.
func WithSnapshotStore(store snapshot.Store) Option {
	return func(s *Service) { s.snapshots = store }
}

// WithRanking sets the in-memory index refreshed from the ratings table.
func WithRanking(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.ranking = store
		}
	}
}

// WithPool sets the worker pool shared by tau runs.
func WithPool(p *worker.Pool) Option {
	return func(s *Service) {
		if p != nil {
			s.pool = p
		}
	}
}

// WithTaus sets the taus replayed by Rate and Evaluate.
func WithTaus(taus ...float64) Option {
	return func(s *Service) { s.taus = taus }
}

// WithPersistTau selects the run written to the ratings table. Zero disables persistence.
func WithPersistTau(tau float64) Option {
	return func(s *Service) { s.persistTau = tau }
}

// WithOutputDir sets the artifact directory. Empty disables artifacts.
func WithOutputDir(dir string) Option {
	return func(s *Service) { s.outputDir = dir }
}

// WithHorizon extends decay to m.
func WithHorizon(m *model.Month) Option {
	return func(s *Service) { s.horizon = m }
}

// WithEngineOptions applies engine settings other than tau.
func WithEngineOptions(opts ...glicko.Option) Option {
	return func(s *Service) { s.engineOpts = append(s.engineOpts, opts...) }
}

// WithRefreshInterval reloads the ratings table periodically after Start.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refreshInterval = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
