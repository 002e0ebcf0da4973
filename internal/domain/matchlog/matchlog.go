// Package matchlog validates raw matches and turns them into bucketed bouts.
package matchlog

import (
	"context"

	"github.com/okian/wrestlerank/internal/domain/dedupe"
	"github.com/okian/wrestlerank/internal/domain/model"
	"github.com/okian/wrestlerank/internal/domain/weightclass"
	"github.com/okian/wrestlerank/pkg/logger"
	"github.com/okian/wrestlerank/pkg/metrics"
)

// Filter applies integrity checks, deduplication and weight normalisation.
//
// A rejected match is a data-integrity failure: it is counted by reason and
// contributes to no bucket. A match whose weight label has no digits is
// excluded silently and counted separately. Neither stops the run.
func Filter(ctx context.Context, matches []model.Match) ([]model.Bout, model.Report) {
	report := model.Report{Total: len(matches), Rejected: map[string]int{}}
	seen := dedupe.New(dedupe.WithCapacity(len(matches)))
	bouts := make([]model.Bout, 0, len(matches))

	reject := func(reason string) {
		report.Rejected[reason]++
		metrics.RecordMatchRejected(reason)
	}

	for _, m := range matches {
		if m.ID == "" || m.CompetitorA == "" || m.CompetitorB == "" || m.Winner == "" || m.Date.IsZero() {
			reject(ReasonMissingField)
			continue
		}
		if seen.SeenAndRecord(m.ID) {
			reject(ReasonDuplicate)
			continue
		}
		if m.CompetitorA == m.CompetitorB {
			reject(ReasonSelfMatch)
			continue
		}
		loser, ok := m.Loser()
		if !ok {
			reject(ReasonWinnerNotParticipant)
			continue
		}
		weight, ok := weightclass.Normalize(m.WeightClass)
		if !ok {
			report.Excluded++
			metrics.RecordMatchExcluded()
			continue
		}
		bouts = append(bouts, model.Bout{
			MatchID:     m.ID,
			Winner:      m.Winner,
			Loser:       loser,
			WeightClass: weight,
			Date:        m.Date.UTC(),
			Month:       model.MonthOf(m.Date),
		})
	}
	report.Accepted = len(bouts)

	if n := report.RejectedTotal(); n > 0 || report.Excluded > 0 {
		fields := []logger.Field{
			logger.Int("total", report.Total),
			logger.Int("rejected", n),
			logger.Int("excluded", report.Excluded),
		}
		for reason, count := range report.Rejected {
			fields = append(fields, logger.Int(reason, count))
		}
		logger.Get().Named("matchlog").Warn(ctx, "skipped matches with missing or invalid data", fields...)
	}
	return bouts, report
}
