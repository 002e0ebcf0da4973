package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/okian/wrestlerank/internal/adapters/artifact"
	"github.com/okian/wrestlerank/internal/domain/compare"
	"github.com/okian/wrestlerank/internal/domain/glicko"
	"github.com/okian/wrestlerank/internal/domain/model"
	"github.com/okian/wrestlerank/internal/domain/period"
	"github.com/okian/wrestlerank/internal/domain/replay"
	"github.com/okian/wrestlerank/pkg/logger"
)

// RunResult summarises one Rate call.
type RunResult struct {
	Report model.Report
	// Periods counts months holding at least one bout.
	Periods   int
	Bouts     int
	Runs      compare.Runs
	Artifacts []string
	// Persisted is the run written to the ratings table, if any.
	Persisted *model.Snapshot
}

// runTaus returns the configured taus with the persist tau added, rounded
// the same way runs are keyed.
func (s *Service) runTaus() []float64 {
	taus := append([]float64{}, s.taus...)
	if len(taus) == 0 {
		taus = append(taus, glicko.DefaultTau)
	}
	if s.persistTau > 0 {
		persist := compare.RoundTau(s.persistTau)
		found := false
		for _, t := range taus {
			if math.Abs(compare.RoundTau(t)-persist) <= compare.LookupTolerance {
				found = true
				break
			}
		}
		if !found {
			taus = append(taus, persist)
		}
	}
	return taus
}

// Rate replays every configured tau over the source matches, writes one
// artifact per run and persists the selected run. A persist failure is
// returned after the artifacts are written; runs are never discarded.
func (s *Service) Rate(ctx context.Context) (*RunResult, error) {
	start := s.now()
	bouts, report, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	periods := period.Segment(bouts)

	opts := []replay.Option{replay.WithReport(report)}
	if s.horizon != nil {
		opts = append(opts, replay.WithHorizon(*s.horizon))
	}
	cmp := compare.New(s.pool, compare.WithEngineOptions(s.engineOpts...), compare.WithLogger(s.logger))
	runs, err := cmp.Run(ctx, periods, s.runTaus(), opts...)
	if err != nil {
		return nil, err
	}

	generated := s.now()
	for _, snap := range runs {
		snap.GeneratedAt = generated
	}
	result := &RunResult{Report: report, Periods: len(periods), Bouts: period.Count(periods), Runs: runs}

	if s.outputDir != "" {
		for _, snap := range runs {
			path, err := artifact.Write(s.outputDir, snap)
			if err != nil {
				return result, fmt.Errorf("write artifact: %w", err)
			}
			result.Artifacts = append(result.Artifacts, path)
		}
	}

	if err := s.persist(ctx, runs, result); err != nil {
		return result, err
	}

	s.mu.Lock()
	s.lastRun = result
	s.mu.Unlock()

	s.logger.Info(ctx, "rating complete",
		logger.Int("taus", len(runs)),
		logger.Int("periods", result.Periods),
		logger.Int("artifacts", len(result.Artifacts)),
		logger.String("duration", time.Since(start).String()),
	)
	return result, nil
}

func (s *Service) persist(ctx context.Context, runs compare.Runs, result *RunResult) error {
	if s.persistTau <= 0 || s.snapshots == nil {
		return nil
	}
	snap, err := s.Persist(ctx, runs)
	if errors.Is(err, ErrTauNotRun) {
		return nil
	}
	if err != nil {
		return err
	}
	result.Persisted = snap
	return nil
}

// Persist writes the run of the persist tau among runs to the ratings table
// and reloads the ranking from it. When no run matches, ErrTauNotRun is
// logged and returned and nothing is written.
func (s *Service) Persist(ctx context.Context, runs compare.Runs) (*model.Snapshot, error) {
	if s.snapshots == nil {
		return nil, ErrNoSnapshot
	}
	if s.persistTau <= 0 {
		return nil, ErrPersistDisabled
	}
	snap, ok := runs.Lookup(s.persistTau)
	if !ok {
		err := fmt.Errorf("%w: %g not in %v", ErrTauNotRun, compare.RoundTau(s.persistTau), runs.Taus())
		s.logger.Error(ctx, "persist skipped", logger.Error(err))
		return nil, err
	}
	if err := s.snapshots.Replace(ctx, snap); err != nil {
		return nil, fmt.Errorf("persist tau %.3f: %w", snap.Tau, err)
	}
	if err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrNoSnapshot) {
		s.logger.Warn(ctx, "ranking refresh after persist failed", logger.Error(err))
	}
	return snap, nil
}

// PersistArtifact writes a previously written run artifact to the ratings
// table. The artifact's tau must match the persist tau.
func (s *Service) PersistArtifact(ctx context.Context, path string) (*model.Snapshot, error) {
	doc, err := artifact.Read(path)
	if err != nil {
		return nil, err
	}
	snap, err := doc.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.logger.Info(ctx, "persisting artifact",
		logger.String("path", path),
		logger.String("run_id", snap.RunID),
		logger.Int("buckets", snap.Len()),
	)
	return s.Persist(ctx, compare.Runs{snap})
}
