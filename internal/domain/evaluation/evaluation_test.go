package evaluation_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/wrestlerank/internal/adapters/worker"
	"github.com/okian/wrestlerank/internal/domain/evaluation"
	"github.com/okian/wrestlerank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 18, 0, 0, 0, time.UTC) }

func bout(id, winner, loser string, at time.Time) model.Bout {
	return model.Bout{MatchID: id, Winner: winner, Loser: loser, WeightClass: 126, Date: at}
}

// dominant returns a history where a beats b on the 10th of every month.
func dominant(from time.Time, months int) []model.Bout {
	out := make([]model.Bout, 0, months)
	for i := 0; i < months; i++ {
		at := from.AddDate(0, i, 0)
		out = append(out, bout(at.Format("2006-01"), "a", "b", at))
	}
	return out
}

func TestEvaluateDominantCompetitor(t *testing.T) {
	Convey("Given a year in which a always beats b", t, func() {
		bouts := dominant(day(2023, time.January, 10), 15)
		w := evaluation.Window{TrainEnd: day(2023, time.December, 31)}

		Convey("Online scoring reaches full accuracy on held-out bouts", func() {
			h := evaluation.NewHarness(evaluation.WithRecords(true))
			res, err := h.Evaluate(context.Background(), bouts, w, 0.5)
			So(err, ShouldBeNil)
			So(res.MatchesScored, ShouldEqual, 3)
			So(res.Accuracy, ShouldEqual, 1.0)
			So(res.LogLoss, ShouldBeLessThan, math.Ln2)
			So(res.BrierScore, ShouldBeLessThan, 0.25)
			So(res.Tau, ShouldEqual, 0.5)

			Convey("And later periods see earlier evaluation updates", func() {
				So(res.Records, ShouldHaveLength, 3)
				So(res.Records[1].Probability, ShouldBeGreaterThan, res.Records[0].Probability)
				So(res.Records[2].Probability, ShouldBeGreaterThan, res.Records[1].Probability)
				So(res.Records[0].Outcome, ShouldEqual, 1.0)
				So(res.Records[0].Month.String(), ShouldEqual, "2024-01")
			})
		})

		Convey("Frozen scoring predicts every bout from the baseline", func() {
			h := evaluation.NewHarness(evaluation.WithRecords(true), evaluation.WithMode(evaluation.Frozen))
			res, err := h.Evaluate(context.Background(), bouts, w, 0.5)
			So(err, ShouldBeNil)
			So(res.Accuracy, ShouldEqual, 1.0)
			So(res.Records[2].Probability, ShouldEqual, res.Records[0].Probability)
		})

		Convey("An eval end bound trims the window", func() {
			w.EvalEnd = day(2024, time.January, 31)
			res, err := evaluation.NewHarness().Evaluate(context.Background(), bouts, w, 0.5)
			So(err, ShouldBeNil)
			So(res.MatchesScored, ShouldEqual, 1)
			So(res.Records, ShouldBeEmpty)
		})
	})
}

func TestEvaluateEdges(t *testing.T) {
	Convey("Given unseen competitors", t, func() {
		bouts := []model.Bout{bout("x", "c", "d", day(2024, time.March, 1))}
		w := evaluation.Window{TrainEnd: day(2024, time.January, 1)}
		res, err := evaluation.NewHarness().Evaluate(context.Background(), bouts, w, 0.5)
		So(err, ShouldBeNil)

		Convey("A coin flip counts as incorrect", func() {
			So(res.MatchesScored, ShouldEqual, 1)
			So(res.Accuracy, ShouldEqual, 0.0)
			So(res.LogLoss, ShouldAlmostEqual, math.Ln2, 1e-12)
			So(res.BrierScore, ShouldAlmostEqual, 0.25, 1e-12)
		})
	})

	Convey("Given an empty evaluation window", t, func() {
		bouts := dominant(day(2023, time.January, 10), 3)
		w := evaluation.Window{TrainEnd: day(2023, time.December, 31)}
		res, err := evaluation.NewHarness().Evaluate(context.Background(), bouts, w, 0.5)
		So(err, ShouldBeNil)
		So(res.MatchesScored, ShouldEqual, 0)
		So(res.LogLoss, ShouldEqual, 0.0)
		So(res.BrierScore, ShouldEqual, 0.0)
		So(res.Accuracy, ShouldEqual, 0.0)
	})

	Convey("Given a cutoff in the middle of a month", t, func() {
		bouts := []model.Bout{
			bout("early", "a", "b", day(2024, time.January, 5)),
			bout("late", "a", "b", day(2024, time.January, 25)),
		}
		w := evaluation.Window{TrainEnd: day(2024, time.January, 15)}
		res, err := evaluation.NewHarness(evaluation.WithRecords(true)).Evaluate(context.Background(), bouts, w, 0.5)

		Convey("The rest of the month is scored as a continuation", func() {
			So(err, ShouldBeNil)
			So(res.MatchesScored, ShouldEqual, 1)
			So(res.Records[0].MatchID, ShouldEqual, "late")
			So(res.Accuracy, ShouldEqual, 1.0)
		})
	})

	Convey("Given invalid windows", t, func() {
		h := evaluation.NewHarness()
		_, err := h.Evaluate(context.Background(), nil, evaluation.Window{}, 0.5)
		So(errors.Is(err, evaluation.ErrMissingTrainEnd), ShouldBeTrue)

		end := day(2024, time.June, 30)
		_, err = h.Evaluate(context.Background(), nil, evaluation.Window{TrainEnd: end, EvalStart: end}, 0.5)
		So(errors.Is(err, evaluation.ErrInvalidWindow), ShouldBeTrue)

		_, err = h.Evaluate(context.Background(), nil, evaluation.Window{
			TrainEnd:  end,
			EvalStart: end.AddDate(0, 1, 0),
			EvalEnd:   end.AddDate(0, 0, 5),
		}, 0.5)
		So(errors.Is(err, evaluation.ErrInvalidWindow), ShouldBeTrue)
	})
}

func TestCompare(t *testing.T) {
	Convey("Given several taus", t, func() {
		bouts := dominant(day(2022, time.June, 10), 24)
		w := evaluation.Window{TrainEnd: day(2023, time.December, 31)}
		h := evaluation.NewHarness()

		results, err := h.Compare(context.Background(), worker.NewPool(worker.WithSize(2)), bouts, w, []float64{1.0, 0.3, 0.6})
		So(err, ShouldBeNil)
		So(results, ShouldHaveLength, 3)

		Convey("Results follow ascending tau and each matches a single evaluation", func() {
			So(results[0].Tau, ShouldEqual, 0.3)
			So(results[2].Tau, ShouldEqual, 1.0)
			single, err := h.Evaluate(context.Background(), bouts, w, 0.6)
			So(err, ShouldBeNil)
			So(results[1].LogLoss, ShouldAlmostEqual, single.LogLoss, 1e-12)
			So(results[1].MatchesScored, ShouldEqual, 5)
		})
	})
}

func TestSummarize(t *testing.T) {
	Convey("Summarize averages record contributions", t, func() {
		res := evaluation.Summarize([]model.EvaluationRecord{
			{LogLoss: 0.2, Brier: 0.04, Correct: true},
			{LogLoss: 0.6, Brier: 0.36, Correct: false},
		})
		So(res.MatchesScored, ShouldEqual, 2)
		So(res.LogLoss, ShouldAlmostEqual, 0.4, 1e-12)
		So(res.BrierScore, ShouldAlmostEqual, 0.2, 1e-12)
		So(res.Accuracy, ShouldEqual, 0.5)
	})
}

func TestParseMode(t *testing.T) {
	Convey("Given mode names", t, func() {
		m, err := evaluation.ParseMode("Frozen")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, evaluation.Frozen)
		So(m.String(), ShouldEqual, "frozen")

		m, err = evaluation.ParseMode("")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, evaluation.Online)

		_, err = evaluation.ParseMode("batch")
		So(errors.Is(err, evaluation.ErrInvalidMode), ShouldBeTrue)
	})
}
