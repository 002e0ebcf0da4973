package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/wrestlerank/internal/adapters/http/api"
	"github.com/okian/wrestlerank/internal/adapters/repository"
	"github.com/okian/wrestlerank/internal/domain/leaderboard"
	"github.com/okian/wrestlerank/internal/domain/model"
)

type staticStats map[string]any

func (s staticStats) Stats(context.Context) map[string]any { return s }

func month(s string) model.Month {
	m, err := model.ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

func seededStore() *repository.TreapStore {
	store := repository.NewTreapStore(repository.WithMaxLimit(50))
	rows := []model.Row{
		{CompetitorID: "alpha", WeightClass: 138, Rating: 1700, RD: 60, Volatility: 0.06, MatchesPlayed: 20, LastActive: month("2024-03")},
		{CompetitorID: "bravo", WeightClass: 138, Rating: 1750, RD: 120, Volatility: 0.06, MatchesPlayed: 5, LastActive: month("2023-06")},
		{CompetitorID: "charlie", WeightClass: 138, Rating: 1600, RD: 40, Volatility: 0.06, MatchesPlayed: 30, LastActive: month("2024-02")},
		{CompetitorID: "delta", WeightClass: 285, Rating: 1550, RD: 80, Volatility: 0.06, MatchesPlayed: 12, LastActive: month("2024-01")},
	}
	if err := store.Replace(context.Background(), rows); err != nil {
		panic(err)
	}
	return store
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLeaderboardRoutes(t *testing.T) {
	Convey("Given a server over a seeded ranking", t, func() {
		h := api.NewServer(seededStore(), staticStats{"runs": 3}, 50).Routes()

		Convey("GET /weights lists weight classes in order", func() {
			rec := get(h, "/weights")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(rec.Body.String()), ShouldEqual, `{"weights":[138,285]}`)
		})

		Convey("GET /leaderboard/{weight} ranks by conservative rating", func() {
			rec := get(h, "/leaderboard/138")
			So(rec.Code, ShouldEqual, http.StatusOK)

			var body struct {
				WeightClass int                 `json:"weight_class"`
				Entries     []leaderboard.Entry `json:"entries"`
			}
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(body.WeightClass, ShouldEqual, 138)
			So(body.Entries, ShouldHaveLength, 3)
			So(body.Entries[0].CompetitorID, ShouldEqual, "alpha")
			So(body.Entries[1].CompetitorID, ShouldEqual, "charlie")
			So(body.Entries[2].CompetitorID, ShouldEqual, "bravo")
			So(body.Entries[0].Score, ShouldEqual, 1580.0)
			So(body.Entries[2].Rank, ShouldEqual, 3)
		})

		Convey("Weight labels with suffixes are normalised", func() {
			rec := get(h, "/leaderboard/HWT%20285?limit=1")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"delta"`)
		})

		Convey("limit and min_last_active narrow the board", func() {
			rec := get(h, "/leaderboard/138?limit=1")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"alpha"`)
			So(rec.Body.String(), ShouldNotContainSubstring, `"charlie"`)

			rec = get(h, "/leaderboard/138?limit=0&min_last_active=2024-01")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldNotContainSubstring, `"bravo"`)
			So(rec.Body.String(), ShouldContainSubstring, `"charlie"`)
		})

		Convey("Bad parameters answer 400", func() {
			So(get(h, "/leaderboard/HWT").Code, ShouldEqual, http.StatusBadRequest)
			So(get(h, "/leaderboard/138?limit=-1").Code, ShouldEqual, http.StatusBadRequest)
			So(get(h, "/leaderboard/138?limit=500").Code, ShouldEqual, http.StatusBadRequest)
			So(get(h, "/leaderboard/138?min_last_active=last-year").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Unknown weight classes answer 404", func() {
			rec := get(h, "/leaderboard/106")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(rec.Body.String(), ShouldContainSubstring, `"not_found"`)
		})

		Convey("GET /rank/{weight}/{competitor} returns the position", func() {
			rec := get(h, "/rank/138/charlie")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var e leaderboard.Entry
			So(json.Unmarshal(rec.Body.Bytes(), &e), ShouldBeNil)
			So(e.Rank, ShouldEqual, 2)
			So(e.MatchesPlayed, ShouldEqual, 30)

			So(get(h, "/rank/138/zulu").Code, ShouldEqual, http.StatusNotFound)
			So(get(h, "/rank/285/alpha").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("GET /stats passes the provider through", func() {
			rec := get(h, "/stats")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(rec.Body.String()), ShouldEqual, `{"runs":3}`)
		})

		Convey("GET /healthz reports indexed buckets", func() {
			rec := get(h, "/healthz")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"buckets":4`)
		})

		Convey("GET /metrics exposes the registry", func() {
			_ = get(h, "/weights")
			rec := get(h, "/metrics")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "http_requests_total")
		})

		Convey("Unknown routes and methods are rejected", func() {
			So(get(h, "/events").Code, ShouldEqual, http.StatusNotFound)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/weights", nil))
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestEmptyIndex(t *testing.T) {
	Convey("Given a server before the first snapshot", t, func() {
		h := api.NewServer(repository.NewTreapStore(), nil, 0).Routes()

		So(get(h, "/healthz").Code, ShouldEqual, http.StatusServiceUnavailable)
		So(strings.TrimSpace(get(h, "/weights").Body.String()), ShouldEqual, `{"weights":[]}`)
		So(strings.TrimSpace(get(h, "/stats").Body.String()), ShouldEqual, `{}`)
	})
}
