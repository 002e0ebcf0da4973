package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/wrestlerank/internal/adapters/artifact"
	"github.com/okian/wrestlerank/internal/domain/compare"
	"github.com/okian/wrestlerank/internal/domain/evaluation"
	"github.com/okian/wrestlerank/internal/domain/model"
	"github.com/okian/wrestlerank/pkg/logger"
)

// EvalRequest configures one Evaluate call.
type EvalRequest struct {
	Window  evaluation.Window
	Mode    evaluation.Mode
	Records bool
	// SummaryPath, when set, receives the JSON summary.
	SummaryPath string
}

// Evaluate scores every configured tau on the evaluation window of the
// source matches.
func (s *Service) Evaluate(ctx context.Context, req EvalRequest) (*artifact.Summary, error) {
	w, err := req.Window.Resolve()
	if err != nil {
		return nil, err
	}
	taus, err := compare.NormalizeTaus(s.taus)
	if err != nil {
		return nil, err
	}
	bouts, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if train, held := w.Partition(bouts); len(train) == 0 || len(held) == 0 {
		s.logger.Warn(ctx, "evaluation window leaves a side empty",
			logger.Int("training", len(train)),
			logger.Int("evaluation", len(held)),
			logger.String("train_end", w.TrainEnd.Format(time.RFC3339)),
		)
	}

	h := evaluation.NewHarness(
		evaluation.WithMode(req.Mode),
		evaluation.WithRecords(req.Records),
		evaluation.WithEngineOptions(s.engineOpts...),
		evaluation.WithLogger(s.logger),
	)
	results, err := h.Compare(ctx, s.pool, bouts, w, taus)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	for _, r := range results {
		if r.MatchesScored == 0 {
			s.logger.Warn(ctx, "no matches scored; metrics are zero, not perfect",
				logger.String("tau", fmt.Sprintf("%.3f", r.Tau)))
		}
	}

	summary := &artifact.Summary{
		GeneratedAt: s.now().UTC(),
		Mode:        req.Mode.String(),
		TrainEnd:    w.TrainEnd,
		EvalStart:   w.EvalStart,
		Taus:        taus,
		Results:     results,
	}
	if !w.EvalEnd.IsZero() {
		end := w.EvalEnd
		summary.EvalEnd = &end
	}
	if req.SummaryPath != "" {
		if err := artifact.WriteSummary(req.SummaryPath, summary); err != nil {
			return summary, err
		}
		s.logger.Info(ctx, "evaluation summary written", logger.String("path", req.SummaryPath))
	}
	return summary, nil
}

// Best returns the result with the lowest log loss. Ties keep the smaller tau.
func Best(results []*model.EvaluationResult) *model.EvaluationResult {
	var best *model.EvaluationResult
	for _, r := range results {
		if r.MatchesScored == 0 {
			continue
		}
		if best == nil || r.LogLoss < best.LogLoss {
			best = r
		}
	}
	return best
}
