package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RankHandler handles rank requests.
type RankHandler struct {
	ranking Ranking
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(ranking Ranking) *RankHandler {
	return &RankHandler{ranking: ranking}
}

// HandleGetRank handles GET /rank/{weight}/{competitor}.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	weight, err := weightParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, err))
		return
	}
	id := chi.URLParam(r, "competitor")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, ErrBadRequest))
		return
	}
	entry, err := h.ranking.Rank(r.Context(), weight, id)
	if err != nil {
		writeStoreError(w, wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
