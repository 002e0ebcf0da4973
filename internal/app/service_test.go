package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/wrestlerank/internal/adapters/matchsource"
	"github.com/okian/wrestlerank/internal/adapters/snapshot"
	service "github.com/okian/wrestlerank/internal/app"
	"github.com/okian/wrestlerank/internal/domain/evaluation"
	"github.com/okian/wrestlerank/internal/domain/leaderboard"
	"github.com/okian/wrestlerank/internal/domain/model"
	"github.com/okian/wrestlerank/pkg/logger"
)

type memSource []model.Match

func (m memSource) Matches(_ context.Context, r matchsource.Range) ([]model.Match, error) {
	var out []model.Match
	for _, x := range m {
		if r.Contains(x.Date) {
			out = append(out, x)
		}
	}
	return out, nil
}

// recorder keeps every log entry so tests can assert on them.
type recorder struct {
	mu      *sync.Mutex
	entries *[]string
}

func newRecorder() recorder { return recorder{mu: &sync.Mutex{}, entries: &[]string{}} }

func (r recorder) add(level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.entries = append(*r.entries, level+": "+msg)
}

func (r recorder) has(line string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range *r.entries {
		if e == line {
			return true
		}
	}
	return false
}

func (r recorder) Info(_ context.Context, msg string, _ ...logger.Field)  { r.add("info", msg) }
func (r recorder) Error(_ context.Context, msg string, _ ...logger.Field) { r.add("error", msg) }
func (r recorder) Debug(_ context.Context, msg string, _ ...logger.Field) { r.add("debug", msg) }
func (r recorder) Warn(_ context.Context, msg string, _ ...logger.Field)  { r.add("warn", msg) }
func (r recorder) Fatal(_ context.Context, msg string, _ ...logger.Field) { r.add("fatal", msg) }
func (r recorder) Named(string) logger.Logger                             { return r }

type failingStore struct{ snapshot.Store }

func (failingStore) Replace(context.Context, *model.Snapshot) error { return errors.New("disk full") }

// season has a beat b and c beat d on the 10th of every month from Jan 2023.
func season(months int) memSource {
	var out memSource
	for i := 0; i < months; i++ {
		at := time.Date(2023, time.January, 10, 12, 0, 0, 0, time.UTC).AddDate(0, i, 0)
		out = append(out,
			model.Match{ID: at.Format("2006-01") + "-ab", CompetitorA: "a", CompetitorB: "b", Winner: "a", WeightClass: "138", Date: at},
			model.Match{ID: at.Format("2006-01") + "-cd", CompetitorA: "c", CompetitorB: "d", Winner: "c", WeightClass: "HWT 285", Date: at},
		)
	}
	// One of each rejection, and an exhibition.
	at := time.Date(2023, time.February, 2, 0, 0, 0, 0, time.UTC)
	out = append(out,
		model.Match{ID: "2023-01-ab", CompetitorA: "a", CompetitorB: "b", Winner: "b", WeightClass: "138", Date: at},
		model.Match{ID: "self", CompetitorA: "a", CompetitorB: "a", Winner: "a", WeightClass: "138", Date: at},
		model.Match{ID: "exh", CompetitorA: "a", CompetitorB: "b", Winner: "a", WeightClass: "EXH", Date: at},
	)
	return out
}

func openStore(t *testing.T) snapshot.Store {
	t.Helper()
	store, err := snapshot.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "ratings.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

var fixed = time.Date(2024, time.May, 1, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixed }

func TestService_Rate(t *testing.T) {
	Convey("Given a service over a small season", t, func() {
		ctx := context.Background()
		out := t.TempDir()
		store := openStore(t)
		svc := service.New(
			service.WithSource(season(6)),
			service.WithSnapshotStore(store),
			service.WithTaus(0.3, 0.3000000001),
			service.WithPersistTau(0.5),
			service.WithOutputDir(out),
			service.WithClock(clock),
		)

		Convey("When rating", func() {
			res, err := svc.Rate(ctx)
			So(err, ShouldBeNil)

			Convey("Then taus are de-duplicated and the persist tau is added", func() {
				So(res.Runs.Taus(), ShouldResemble, []float64{0.3, 0.5})
				So(res.Persisted, ShouldNotBeNil)
				So(res.Persisted.Tau, ShouldEqual, 0.5)
			})

			Convey("Then the report counts every input match", func() {
				So(res.Report.Total, ShouldEqual, 15)
				So(res.Report.Accepted, ShouldEqual, 12)
				So(res.Report.Excluded, ShouldEqual, 1)
				So(res.Report.Rejected["duplicate"], ShouldEqual, 1)
				So(res.Report.Rejected["self_match"], ShouldEqual, 1)
				So(res.Periods, ShouldEqual, 6)
				So(res.Bouts, ShouldEqual, 12)
			})

			Convey("Then one artifact is written per tau", func() {
				So(res.Artifacts, ShouldHaveLength, 2)
				for _, p := range res.Artifacts {
					_, err := os.Stat(p)
					So(err, ShouldBeNil)
				}
				So(filepath.Base(res.Artifacts[1]), ShouldEqual, "glicko2_tau-0.500.json")
			})

			Convey("Then the ranking serves the persisted run", func() {
				rows, err := store.Load(ctx)
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 4)
				So(svc.Ranking().Weights(ctx), ShouldResemble, []int{138, 285})

				top, err := svc.Ranking().TopN(ctx, 138, leaderboard.Query{Limit: 1})
				So(err, ShouldBeNil)
				So(top[0].CompetitorID, ShouldEqual, "a")

				stats := svc.Stats(ctx)
				So(stats["buckets"], ShouldEqual, 4)
				So(stats["last_refresh"], ShouldEqual, "2024-05-01T09:30:00Z")
				So(stats["last_run"], ShouldNotBeNil)
			})
		})

		Convey("When persisting fails the artifacts survive", func() {
			broken := service.New(
				service.WithSource(season(3)),
				service.WithSnapshotStore(failingStore{store}),
				service.WithOutputDir(out),
			)
			res, err := broken.Rate(ctx)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "disk full")
			So(res.Artifacts, ShouldHaveLength, 1)
			So(res.Persisted, ShouldBeNil)
		})

		Convey("When persistence is disabled nothing is written", func() {
			quiet := service.New(service.WithSource(season(2)), service.WithSnapshotStore(store), service.WithPersistTau(0))
			res, err := quiet.Rate(ctx)
			So(err, ShouldBeNil)
			So(res.Persisted, ShouldBeNil)
			So(res.Artifacts, ShouldBeEmpty)
			_, err = store.Load(ctx)
			So(errors.Is(err, snapshot.ErrNoSnapshot), ShouldBeTrue)
		})
	})

	Convey("Given a persist tau with more than six decimals", t, func() {
		ctx := context.Background()
		store := openStore(t)
		svc := service.New(
			service.WithSource(season(4)),
			service.WithSnapshotStore(store),
			service.WithTaus(0.3),
			service.WithPersistTau(0.3000004),
			service.WithOutputDir(t.TempDir()),
		)

		res, err := svc.Rate(ctx)
		So(err, ShouldBeNil)

		Convey("Then it selects the rounded run instead of adding another", func() {
			So(res.Runs.Taus(), ShouldResemble, []float64{0.3})
			So(res.Artifacts, ShouldHaveLength, 1)
			So(res.Persisted, ShouldNotBeNil)
			So(res.Persisted.Tau, ShouldEqual, 0.3)

			rows, err := store.Load(ctx)
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 4)
			So(rows[0].Tau, ShouldEqual, 0.3)
		})
	})

	Convey("Given a service without a source", t, func() {
		_, err := service.New().Rate(context.Background())
		So(errors.Is(err, service.ErrNoSource), ShouldBeTrue)
	})
}

func TestService_Persist(t *testing.T) {
	Convey("Given runs rated without persistence", t, func() {
		ctx := context.Background()
		out := t.TempDir()
		res, err := service.New(
			service.WithSource(season(4)),
			service.WithTaus(0.3),
			service.WithPersistTau(0),
			service.WithOutputDir(out),
		).Rate(ctx)
		So(err, ShouldBeNil)
		So(res.Persisted, ShouldBeNil)
		So(res.Artifacts, ShouldHaveLength, 1)

		store := openStore(t)
		logs := newRecorder()

		Convey("When the persist tau was not run", func() {
			svc := service.New(service.WithSnapshotStore(store), service.WithPersistTau(0.7), service.WithLogger(logs))
			snap, err := svc.Persist(ctx, res.Runs)

			Convey("Then the skip is reported and logged", func() {
				So(errors.Is(err, service.ErrTauNotRun), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "0.7")
				So(snap, ShouldBeNil)
				So(logs.has("error: persist skipped"), ShouldBeTrue)
			})

			Convey("Then nothing is written and the runs are untouched", func() {
				_, err := store.Load(ctx)
				So(errors.Is(err, snapshot.ErrNoSnapshot), ShouldBeTrue)
				So(res.Runs.Taus(), ShouldResemble, []float64{0.3})
				_, err = os.Stat(res.Artifacts[0])
				So(err, ShouldBeNil)
				So(svc.Ranking().Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the persist tau matches a run", func() {
			svc := service.New(service.WithSnapshotStore(store), service.WithPersistTau(0.3))
			snap, err := svc.Persist(ctx, res.Runs)
			So(err, ShouldBeNil)
			So(snap.Tau, ShouldEqual, 0.3)
			So(svc.Ranking().Count(ctx), ShouldEqual, 4)
		})

		Convey("When the artifact is persisted", func() {
			svc := service.New(service.WithSnapshotStore(store), service.WithPersistTau(0.3), service.WithLogger(logs))
			snap, err := svc.PersistArtifact(ctx, res.Artifacts[0])
			So(err, ShouldBeNil)
			So(snap.RunID, ShouldEqual, res.Runs[0].RunID)

			rows, err := store.Load(ctx)
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 4)
			So(rows[0].RunID, ShouldEqual, res.Runs[0].RunID)
			So(svc.Ranking().Weights(ctx), ShouldResemble, []int{138, 285})
			So(logs.has("info: persisting artifact"), ShouldBeTrue)
		})

		Convey("When the artifact tau differs from the persist tau", func() {
			svc := service.New(service.WithSnapshotStore(store), service.WithPersistTau(0.5), service.WithLogger(logs))
			_, err := svc.PersistArtifact(ctx, res.Artifacts[0])
			So(errors.Is(err, service.ErrTauNotRun), ShouldBeTrue)
			_, err = store.Load(ctx)
			So(errors.Is(err, snapshot.ErrNoSnapshot), ShouldBeTrue)
		})

		Convey("When the artifact is missing", func() {
			svc := service.New(service.WithSnapshotStore(store), service.WithPersistTau(0.3))
			_, err := svc.PersistArtifact(ctx, filepath.Join(out, "absent.json"))
			So(err, ShouldNotBeNil)
		})

		Convey("When persistence is off or has no store", func() {
			_, err := service.New(service.WithSnapshotStore(store), service.WithPersistTau(0)).Persist(ctx, res.Runs)
			So(errors.Is(err, service.ErrPersistDisabled), ShouldBeTrue)
			_, err = service.New().Persist(ctx, res.Runs)
			So(errors.Is(err, service.ErrNoSnapshot), ShouldBeTrue)
		})
	})
}

func TestService_Evaluate(t *testing.T) {
	Convey("Given a dominant season", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithSource(season(15)), service.WithTaus(0.5, 0.9), service.WithClock(clock))
		trainEnd, _ := model.ParseTimestamp("2023-12-31", true)
		summaryPath := filepath.Join(t.TempDir(), "eval", "summary.json")

		summary, err := svc.Evaluate(ctx, service.EvalRequest{
			Window:      evaluation.Window{TrainEnd: trainEnd},
			Records:     true,
			SummaryPath: summaryPath,
		})
		So(err, ShouldBeNil)

		Convey("Then every tau is scored on the held-out months", func() {
			So(summary.Taus, ShouldResemble, []float64{0.5, 0.9})
			So(summary.Results, ShouldHaveLength, 2)
			for _, r := range summary.Results {
				So(r.MatchesScored, ShouldEqual, 6)
				So(r.Accuracy, ShouldEqual, 1.0)
				So(r.Records, ShouldHaveLength, 6)
			}
			So(summary.Mode, ShouldEqual, "online")
			So(summary.EvalEnd, ShouldBeNil)
			So(summary.EvalStart.After(trainEnd), ShouldBeTrue)
		})

		Convey("Then the summary file is written", func() {
			_, err := os.Stat(summaryPath)
			So(err, ShouldBeNil)
		})

		Convey("Then Best picks the lowest log loss", func() {
			best := service.Best(summary.Results)
			So(best, ShouldNotBeNil)
			for _, r := range summary.Results {
				So(best.LogLoss, ShouldBeLessThanOrEqualTo, r.LogLoss)
			}
		})

		Convey("A window past the last match warns instead of scoring", func() {
			logs := newRecorder()
			quiet := service.New(service.WithSource(season(3)), service.WithTaus(0.5), service.WithLogger(logs))
			late, _ := model.ParseTimestamp("2030-01-01", true)
			summary, err := quiet.Evaluate(ctx, service.EvalRequest{Window: evaluation.Window{TrainEnd: late}})
			So(err, ShouldBeNil)
			So(summary.Results[0].MatchesScored, ShouldEqual, 0)
			So(logs.has("warn: evaluation window leaves a side empty"), ShouldBeTrue)
			So(logs.has("warn: no matches scored; metrics are zero, not perfect"), ShouldBeTrue)
			So(service.Best(summary.Results), ShouldBeNil)
		})

		Convey("A window without a train end is rejected", func() {
			_, err := svc.Evaluate(ctx, service.EvalRequest{})
			So(errors.Is(err, evaluation.ErrMissingTrainEnd), ShouldBeTrue)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a persisted run", t, func() {
		ctx := context.Background()
		store := openStore(t)
		writer := service.New(service.WithSource(season(4)), service.WithSnapshotStore(store))
		_, err := writer.Rate(ctx)
		So(err, ShouldBeNil)

		Convey("A fresh service loads it on start", func() {
			svc := service.New(service.WithSnapshotStore(store), service.WithRefreshInterval(10*time.Millisecond))
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Ranking().Count(ctx), ShouldEqual, 4)
			So(svc.Stats(ctx)["started"], ShouldEqual, true)

			svc.Stop()
			svc.Stop()
			So(svc.Stats(ctx)["started"], ShouldEqual, false)
		})

		Convey("Refresh without a store reports it", func() {
			err := service.New().Refresh(ctx)
			So(errors.Is(err, service.ErrNoSnapshot), ShouldBeTrue)
		})
	})
}
