// Package api serves the persisted leaderboards over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/wrestlerank/internal/adapters/repository"
	"github.com/okian/wrestlerank/internal/domain/leaderboard"
	"github.com/okian/wrestlerank/internal/domain/weightclass"
)

// Ranking is the read side of the ranking index.
type Ranking interface {
	Weights(ctx context.Context) []int
	TopN(ctx context.Context, weight int, q leaderboard.Query) ([]leaderboard.Entry, error)
	Rank(ctx context.Context, weight int, competitorID string) (leaderboard.Entry, error)
	Count(ctx context.Context) int
}

// Server wires HTTP routes for the leaderboard API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	weightsHandler     *WeightsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(ranking Ranking, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(ranking),
		statsHandler:       NewStatsHandler(statsProvider),
		weightsHandler:     NewWeightsHandler(ranking),
		leaderboardHandler: NewLeaderboardHandler(ranking, maxLimit),
		rankHandler:        NewRankHandler(ranking),
	}
}

// Routes returns the router serving every endpoint.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Get("/weights", MetricsMiddleware(s.weightsHandler.HandleGetWeights, "weights"))
	r.Get("/leaderboard/{weight}", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	r.Get("/rank/{weight}/{competitor}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	return r
}

// weightParam resolves the {weight} path parameter. Labels such as "138A"
// are accepted and normalised.
func weightParam(r *http.Request) (int, error) {
	w, ok := weightclass.Normalize(chi.URLParam(r, "weight"))
	if !ok {
		return 0, ErrBadWeight
	}
	return w, nil
}

func intParam(raw string, def int) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil && n >= 0
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeStoreError maps ranking errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrUnknownWeight):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "limit_exceeded", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
