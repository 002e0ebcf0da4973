package api

import (
	"net/http"
	"strings"

	"github.com/okian/wrestlerank/internal/domain/leaderboard"
	"github.com/okian/wrestlerank/internal/domain/model"
)

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	ranking  Ranking
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(ranking Ranking, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{ranking: ranking, maxLimit: maxLimit}
}

type leaderboardResponse struct {
	WeightClass int                 `json:"weight_class"`
	Entries     []leaderboard.Entry `json:"entries"`
}

// HandleGetLeaderboard handles GET /leaderboard/{weight}?limit=N&min_last_active=YYYY-MM.
// A missing limit means leaderboard.DefaultLimit; zero means every entry.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	weight, err := weightParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, err))
		return
	}

	limit, ok := intParam(r.URL.Query().Get("limit"), leaderboard.DefaultLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, ErrBadLimit))
		return
	}
	if h.maxLimit > 0 && limit > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", wrap(op, ErrBadLimit))
		return
	}
	q := leaderboard.Query{Limit: limit}

	if raw := strings.TrimSpace(r.URL.Query().Get("min_last_active")); raw != "" {
		m, err := model.ParseMonth(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrap(op, ErrBadMonth))
			return
		}
		q.MinLastActive = &m
	}

	entries, err := h.ranking.TopN(r.Context(), weight, q)
	if err != nil {
		writeStoreError(w, wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{WeightClass: weight, Entries: entries})
}
