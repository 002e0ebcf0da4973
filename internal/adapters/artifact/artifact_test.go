package artifact_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/wrestlerank/internal/adapters/artifact"
	"github.com/okian/wrestlerank/internal/domain/model"
)

func sampleSnapshot() *model.Snapshot {
	jan, _ := model.ParseMonth("2024-01")
	return &model.Snapshot{
		RunID:        "run-1",
		Tau:          0.5,
		GeneratedAt:  time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
		PeriodStart:  jan,
		PeriodEnd:    jan.Next(),
		TotalPeriods: 2,
		Report:       model.Report{Total: 3, Accepted: 2, Excluded: 1},
		States: map[model.Bucket]model.RatingState{
			{CompetitorID: "a", WeightClass: 138}: {Rating: 1662.311234, RD: 290.319884, Volatility: 0.05999912, MatchesPlayed: 1, LastActive: jan},
			{CompetitorID: "b", WeightClass: 138}: {Rating: 1337.688766, RD: 290.319884, Volatility: 0.05999912, MatchesPlayed: 1, LastActive: jan},
			{CompetitorID: "c-1", WeightClass: 97}: {Rating: 1500, RD: 350, Volatility: 0.06, MatchesPlayed: 0, LastActive: jan},
		},
	}
}

func TestBuild(t *testing.T) {
	convey.Convey("Given a finished run", t, func() {
		doc, err := artifact.Build(sampleSnapshot())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Values are rounded for publication", func() {
			a := doc.Ratings["a-138"]
			convey.So(a.Rating, convey.ShouldEqual, 1662.311)
			convey.So(a.RD, convey.ShouldEqual, 290.32)
			convey.So(a.Volatility, convey.ShouldEqual, 0.059999)
		})

		convey.Convey("Period bounds render as first-of-month dates", func() {
			convey.So(*doc.PeriodStart, convey.ShouldEqual, "2024-01-01")
			convey.So(*doc.PeriodEnd, convey.ShouldEqual, "2024-02-01")
		})

		convey.Convey("Weight classes are ordered numerically and by rating", func() {
			raw, err := json.Marshal(doc.WeightClasses)
			convey.So(err, convey.ShouldBeNil)
			s := string(raw)
			convey.So(strings.Index(s, `"97"`), convey.ShouldBeLessThan, strings.Index(s, `"138"`))
			convey.So(doc.WeightClasses[1].Entries[0].CompetitorID, convey.ShouldEqual, "a")
		})

		convey.Convey("A nil snapshot is rejected", func() {
			_, err := artifact.Build(nil)
			convey.So(err, convey.ShouldEqual, artifact.ErrNilSnapshot)
		})

		convey.Convey("An empty run has null bounds", func() {
			doc, err := artifact.Build(&model.Snapshot{Tau: 0.3, States: map[model.Bucket]model.RatingState{}})
			convey.So(err, convey.ShouldBeNil)
			raw, err := json.Marshal(doc)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(raw), convey.ShouldContainSubstring, `"period_start":null`)
			convey.So(string(raw), convey.ShouldContainSubstring, `"weight_classes":{}`)
		})
	})
}

func TestWriteRead(t *testing.T) {
	convey.Convey("Given an output directory", t, func() {
		dir := t.TempDir()

		convey.Convey("Write then Read returns equivalent rows", func() {
			path, err := artifact.Write(dir, sampleSnapshot())
			convey.So(err, convey.ShouldBeNil)
			convey.So(filepath.Base(path), convey.ShouldEqual, "glicko2_tau-0.500.json")

			doc, err := artifact.Read(path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(doc.RunID, convey.ShouldEqual, "run-1")
			convey.So(doc.WeightClasses, convey.ShouldHaveLength, 2)
			convey.So(doc.WeightClasses[0].Weight, convey.ShouldEqual, 97)

			rows, err := doc.Rows()
			convey.So(err, convey.ShouldBeNil)
			convey.So(rows, convey.ShouldHaveLength, 3)
			convey.So(rows[0].CompetitorID, convey.ShouldEqual, "c-1")
			convey.So(rows[0].WeightClass, convey.ShouldEqual, 97)
			convey.So(rows[1].Tau, convey.ShouldEqual, 0.5)

			entries, err := os.ReadDir(dir)
			convey.So(err, convey.ShouldBeNil)
			convey.So(entries, convey.ShouldHaveLength, 1)
		})

		convey.Convey("A read artifact rebuilds the run it came from", func() {
			path, err := artifact.Write(dir, sampleSnapshot())
			convey.So(err, convey.ShouldBeNil)
			doc, err := artifact.Read(path)
			convey.So(err, convey.ShouldBeNil)

			snap, err := doc.Snapshot()
			convey.So(err, convey.ShouldBeNil)
			convey.So(snap.Tau, convey.ShouldEqual, 0.5)
			convey.So(snap.RunID, convey.ShouldEqual, "run-1")
			convey.So(snap.TotalPeriods, convey.ShouldEqual, 2)
			convey.So(snap.PeriodEnd.String(), convey.ShouldEqual, "2024-02")
			convey.So(snap.Report.Excluded, convey.ShouldEqual, 1)
			convey.So(snap.Len(), convey.ShouldEqual, 3)

			a := snap.States[model.Bucket{CompetitorID: "a", WeightClass: 138}]
			convey.So(a.Rating, convey.ShouldEqual, 1662.311)
			convey.So(a.MatchesPlayed, convey.ShouldEqual, 1)
			convey.So(a.LastActive.String(), convey.ShouldEqual, "2024-01")
			convey.So(snap.Rows()[0].CompetitorID, convey.ShouldEqual, "c-1")
		})

		convey.Convey("A bucket key without a weight is malformed", func() {
			doc := &artifact.Document{Tau: 0.5, Ratings: map[string]artifact.Rating{"nokey": {}}}
			_, err := doc.Snapshot()
			convey.So(errors.Is(err, artifact.ErrMalformed), convey.ShouldBeTrue)
		})

		convey.Convey("Reading garbage reports a malformed artifact", func() {
			path := filepath.Join(dir, "bad.json")
			convey.So(os.WriteFile(path, []byte("{"), 0o600), convey.ShouldBeNil)
			_, err := artifact.Read(path)
			convey.So(errors.Is(err, artifact.ErrMalformed), convey.ShouldBeTrue)
		})

		convey.Convey("WriteSummary creates parent directories", func() {
			path := filepath.Join(dir, "eval", "summary.json")
			err := artifact.WriteSummary(path, &artifact.Summary{
				Mode:    "online",
				Taus:    []float64{0.3, 0.5},
				Results: []*model.EvaluationResult{{Tau: 0.3, MatchesScored: 2}},
			})
			convey.So(err, convey.ShouldBeNil)
			raw, err := os.ReadFile(path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(raw), convey.ShouldContainSubstring, `"mode": "online"`)
			convey.So(string(raw), convey.ShouldContainSubstring, `"matches": 2`)
		})
	})
}
