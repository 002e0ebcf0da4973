package api

import "net/http"

// WeightsHandler lists indexed weight classes.
type WeightsHandler struct {
	ranking Ranking
}

// NewWeightsHandler creates a new weights handler.
func NewWeightsHandler(ranking Ranking) *WeightsHandler {
	return &WeightsHandler{ranking: ranking}
}

type weightsResponse struct {
	Weights []int `json:"weights"`
}

// HandleGetWeights handles GET /weights.
func (h *WeightsHandler) HandleGetWeights(w http.ResponseWriter, r *http.Request) {
	weights := h.ranking.Weights(r.Context())
	if weights == nil {
		weights = []int{}
	}
	writeJSON(w, http.StatusOK, weightsResponse{Weights: weights})
}
