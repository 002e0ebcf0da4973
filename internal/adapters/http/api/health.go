package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/wrestlerank/pkg/metrics"
)

// HealthHandler serves liveness and metrics.
type HealthHandler struct {
	ranking Ranking
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(ranking Ranking) *HealthHandler {
	return &HealthHandler{ranking: ranking}
}

type healthResponse struct {
	Status  string `json:"status"`
	Buckets int    `json:"buckets"`
}

// HandleHealth handles GET /healthz. An empty index answers 503 so that a
// load balancer waits for the first snapshot.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	n := h.ranking.Count(r.Context())
	if n == 0 {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "empty"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Buckets: n})
}

// HandleMetrics handles GET /metrics from the service registry.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
