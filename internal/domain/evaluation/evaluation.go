// Package evaluation scores tau values by training on history up to a cutoff
// and predicting the matches that follow.
package evaluation

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/okian/wrestlerank/internal/adapters/worker"
	"github.com/okian/wrestlerank/internal/domain/compare"
	"github.com/okian/wrestlerank/internal/domain/glicko"
	"github.com/okian/wrestlerank/internal/domain/model"
	"github.com/okian/wrestlerank/internal/domain/period"
	"github.com/okian/wrestlerank/internal/domain/replay"
	"github.com/okian/wrestlerank/pkg/logger"
	"github.com/okian/wrestlerank/pkg/metrics"
)

// probabilityEpsilon keeps log loss finite.
const probabilityEpsilon = 1e-12

// Harness runs train/predict/score for one or more taus.
type Harness struct {
	mode        Mode
	keepRecords bool
	engineOpts  []glicko.Option
	logger      logger.Logger
}

// NewHarness creates a Harness configured by opts.
func NewHarness(opts ...Option) *Harness {
	h := &Harness{mode: Online, logger: logger.Get()}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.Named("evaluation")
	return h
}

// Mode returns the configured evaluation mode.
func (h *Harness) Mode() Mode { return h.mode }

// Evaluate replays the training set on a private ledger, then walks the
// evaluation periods in order. Each match is predicted from the pre-update
// states of both buckets; in Online mode the period is applied afterwards so
// later periods see it.
func (h *Harness) Evaluate(ctx context.Context, bouts []model.Bout, w Window, tau float64) (*model.EvaluationResult, error) {
	w, err := w.Resolve()
	if err != nil {
		return nil, err
	}
	opts := append(append([]glicko.Option{}, h.engineOpts...), glicko.WithTau(tau))
	engine := glicko.New(opts...)

	trainBouts, evalBouts := w.Partition(bouts)
	train := period.Segment(trainBouts)
	eval := period.Segment(evalBouts)

	ledger := replay.NewLedger(engine)
	for _, p := range train {
		if _, err := ledger.Advance(p); err != nil {
			return nil, fmt.Errorf("train tau=%v: %w", tau, err)
		}
	}
	baseline, trained := ledger.Current()

	var records []model.EvaluationRecord
	for _, p := range eval {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("evaluate tau=%v: %w", tau, err)
		}
		at := p.Month
		if h.mode == Frozen && trained {
			at = baseline.Next()
		}
		for _, b := range p.Bouts {
			winner, _ := ledger.View(b.WinnerBucket(), at)
			loser, _ := ledger.View(b.LoserBucket(), at)
			records = append(records, score(b, glicko.WinProbability(winner, loser)))
		}
		if h.mode == Online {
			if _, err := ledger.Advance(p); err != nil {
				return nil, fmt.Errorf("evaluate tau=%v: %w", tau, err)
			}
		}
	}

	result := Summarize(records)
	result.Tau = tau
	if h.keepRecords {
		result.Records = records
	}

	tauLabel := strconv.FormatFloat(tau, 'f', 3, 64)
	metrics.UpdateEvaluation(tauLabel, result.LogLoss, result.BrierScore, result.Accuracy, result.MatchesScored)
	h.logger.Info(ctx, "evaluation complete",
		logger.String("tau", tauLabel),
		logger.String("mode", h.mode.String()),
		logger.Int("train_matches", len(trainBouts)),
		logger.Int("matches", result.MatchesScored),
		logger.Float64("log_loss", result.LogLoss),
		logger.Float64("brier", result.BrierScore),
		logger.Float64("accuracy", result.Accuracy),
	)
	return result, nil
}

// Compare evaluates every normalized tau in parallel on pool.
func (h *Harness) Compare(ctx context.Context, pool *worker.Pool, bouts []model.Bout, w Window, taus []float64) ([]*model.EvaluationResult, error) {
	taus, err := compare.NormalizeTaus(taus)
	if err != nil {
		return nil, err
	}
	if _, err := w.Resolve(); err != nil {
		return nil, err
	}
	if pool == nil {
		pool = worker.NewPool()
	}
	return worker.Map(ctx, pool, len(taus), func(ctx context.Context, i int) (*model.EvaluationResult, error) {
		return h.Evaluate(ctx, bouts, w, taus[i])
	})
}

func clamp(p float64) float64 {
	return math.Max(probabilityEpsilon, math.Min(p, 1-probabilityEpsilon))
}

func score(b model.Bout, p float64) model.EvaluationRecord {
	p = clamp(p)
	return model.EvaluationRecord{
		MatchID:     b.MatchID,
		Winner:      b.Winner,
		Loser:       b.Loser,
		WeightClass: b.WeightClass,
		Month:       b.Month,
		Probability: p,
		Outcome:     1,
		LogLoss:     -math.Log(p),
		Brier:       (p - 1) * (p - 1),
		Correct:     p > 0.5,
	}
}

// Summarize averages records into aggregate metrics. No records yields zeros.
func Summarize(records []model.EvaluationRecord) *model.EvaluationResult {
	res := &model.EvaluationResult{MatchesScored: len(records)}
	if len(records) == 0 {
		return res
	}
	var correct int
	for _, r := range records {
		res.LogLoss += r.LogLoss
		res.BrierScore += r.Brier
		if r.Correct {
			correct++
		}
	}
	n := float64(len(records))
	res.LogLoss /= n
	res.BrierScore /= n
	res.Accuracy = float64(correct) / n
	return res
}
