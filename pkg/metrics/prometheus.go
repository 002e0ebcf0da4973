// Package metrics provides Prometheus metrics for the rating replay and leaderboard.
package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Replay Metrics
	runsTotal        *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	periodsProcessed prometheus.Counter
	matchesApplied   prometheus.Counter
	matchesRejected  *prometheus.CounterVec
	matchesExcluded  prometheus.Counter
	bucketsRated     *prometheus.GaugeVec

	// Volatility solver
	solverIterations prometheus.Histogram
	solverCapHits    prometheus.Counter

	// Evaluation Metrics
	evaluationLogLoss  *prometheus.GaugeVec
	evaluationBrier    *prometheus.GaugeVec
	evaluationAccuracy *prometheus.GaugeVec
	evaluationMatches  *prometheus.GaugeVec

	// Snapshot persistence
	persistLatency prometheus.Histogram
	persistErrors  prometheus.Counter
	persistedRows  prometheus.Gauge

	// Leaderboard
	leaderboardEntries *prometheus.GaugeVec

	// Worker Metrics
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "wrestlerank",
		subsystem:        "glicko",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.runsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("runs_total"),
		Help:        "Total number of completed replay runs by tau",
		ConstLabels: labels,
	}, []string{"tau"})

	m.runDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("run_duration_milliseconds"),
		Help:        "Wall time of a full replay run in milliseconds",
		Buckets:     []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 60000},
		ConstLabels: labels,
	}, []string{"tau"})

	m.periodsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("periods_processed_total"),
		Help:        "Total number of rating periods advanced across all runs",
		ConstLabels: labels,
	})

	m.matchesApplied = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("matches_applied_total"),
		Help:        "Total number of matches folded into batch updates",
		ConstLabels: labels,
	})

	m.matchesRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("matches_rejected_total"),
		Help:        "Total number of matches rejected for data-integrity reasons",
		ConstLabels: labels,
	}, []string{"reason"})

	m.matchesExcluded = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("matches_excluded_total"),
		Help:        "Total number of matches excluded for a weight class without digits",
		ConstLabels: labels,
	})

	m.bucketsRated = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("buckets_rated"),
		Help:        "Number of competitor/weight buckets in the latest snapshot by tau",
		ConstLabels: labels,
	}, []string{"tau"})

	m.solverIterations = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("volatility_solver_iterations"),
		Help:        "Iterations used by the volatility root finder per update",
		Buckets:     []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 100},
		ConstLabels: labels,
	})

	m.solverCapHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("volatility_solver_cap_hits_total"),
		Help:        "Number of volatility solves that stopped at the iteration cap",
		ConstLabels: labels,
	})

	m.evaluationLogLoss = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("evaluation_log_loss"),
		Help:        "Mean log loss of the latest evaluation by tau",
		ConstLabels: labels,
	}, []string{"tau"})

	m.evaluationBrier = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("evaluation_brier_score"),
		Help:        "Mean Brier score of the latest evaluation by tau",
		ConstLabels: labels,
	}, []string{"tau"})

	m.evaluationAccuracy = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("evaluation_accuracy_ratio"),
		Help:        "Prediction accuracy of the latest evaluation by tau",
		ConstLabels: labels,
	}, []string{"tau"})

	m.evaluationMatches = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("evaluation_matches_scored"),
		Help:        "Number of matches scored in the latest evaluation by tau",
		ConstLabels: labels,
	}, []string{"tau"})

	m.persistLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("snapshot_persist_latency_milliseconds"),
		Help:        "Latency of a full snapshot replace in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.persistErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("snapshot_persist_errors_total"),
		Help:        "Total number of failed snapshot replaces",
		ConstLabels: labels,
	})

	m.persistedRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("snapshot_rows"),
		Help:        "Rows written by the last successful snapshot replace",
		ConstLabels: labels,
	})

	m.leaderboardEntries = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("leaderboard_entries"),
		Help:        "Number of ranked entries per weight class",
		ConstLabels: labels,
	}, []string{"weight_class"})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_active_count"),
		Help:        "Number of workers currently running a job",
		ConstLabels: labels,
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_processing_latency_milliseconds"),
		Help:        "Worker job latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.workerErrorRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_errors_total"),
		Help:        "Total number of worker job errors",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_component_total"),
			Help:        "Total number of errors by component",
			ConstLabels: labels,
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_endpoint_total"),
			Help:        "Total number of errors by endpoint",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "error_type"},
	)
}

// SetEnabled turns recording by the package helpers on or off.
func SetEnabled(enabled bool) {
	globalManager.enabled.Store(enabled)
}

// Enabled reports whether the package helpers record.
func Enabled() bool { return active() }

func active() bool { return globalManager.enabled.Load() }

// Replay Metrics Functions.

// RecordRun records a completed replay run for tau.
func RecordRun(tau string, durationMs float64) {
	if !active() {
		return
	}
	globalManager.runsTotal.WithLabelValues(tau).Inc()
	globalManager.runDuration.WithLabelValues(tau).Observe(durationMs)
}

// RecordPeriodProcessed increments the rating periods counter.
func RecordPeriodProcessed() {
	if !active() {
		return
	}
	globalManager.periodsProcessed.Inc()
}

// RecordMatchesApplied adds n matches to the applied counter.
func RecordMatchesApplied(n int) {
	if !active() {
		return
	}
	globalManager.matchesApplied.Add(float64(n))
}

// RecordMatchRejected increments the rejected counter for reason.
func RecordMatchRejected(reason string) {
	if !active() {
		return
	}
	globalManager.matchesRejected.WithLabelValues(reason).Inc()
}

// RecordMatchExcluded increments the excluded counter.
func RecordMatchExcluded() {
	if !active() {
		return
	}
	globalManager.matchesExcluded.Inc()
}

// UpdateBucketsRated sets the bucket count of the snapshot produced for tau.
func UpdateBucketsRated(tau string, count int) {
	if !active() {
		return
	}
	globalManager.bucketsRated.WithLabelValues(tau).Set(float64(count))
}

// RecordSolverIterations observes the iterations of one volatility solve.
func RecordSolverIterations(iterations int) {
	if !active() {
		return
	}
	globalManager.solverIterations.Observe(float64(iterations))
}

// RecordSolverCapHit increments the solver cap counter.
func RecordSolverCapHit() {
	if !active() {
		return
	}
	globalManager.solverCapHits.Inc()
}

// Evaluation Metrics Functions.

// UpdateEvaluation publishes the aggregate metrics of an evaluation for tau.
func UpdateEvaluation(tau string, logLoss, brier, accuracy float64, matches int) {
	if !active() {
		return
	}
	globalManager.evaluationLogLoss.WithLabelValues(tau).Set(logLoss)
	globalManager.evaluationBrier.WithLabelValues(tau).Set(brier)
	globalManager.evaluationAccuracy.WithLabelValues(tau).Set(accuracy)
	globalManager.evaluationMatches.WithLabelValues(tau).Set(float64(matches))
}

// Snapshot Metrics Functions.

// RecordPersistLatency records snapshot replace latency.
func RecordPersistLatency(latencyMs float64) {
	if !active() {
		return
	}
	globalManager.persistLatency.Observe(latencyMs)
}

// RecordPersistError increments the persist error counter.
func RecordPersistError() {
	if !active() {
		return
	}
	globalManager.persistErrors.Inc()
}

// UpdatePersistedRows sets the row count of the last persisted snapshot.
func UpdatePersistedRows(count int) {
	if !active() {
		return
	}
	globalManager.persistedRows.Set(float64(count))
}

// UpdateLeaderboardEntries sets the ranked entry count for a weight class.
func UpdateLeaderboardEntries(weightClass string, count int) {
	if !active() {
		return
	}
	globalManager.leaderboardEntries.WithLabelValues(weightClass).Set(float64(count))
}

// Worker Metrics Functions.

// AddWorkerActive adjusts the active worker gauge by delta.
func AddWorkerActive(delta int) {
	if !active() {
		return
	}
	globalManager.workerActiveCount.Add(float64(delta))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if !active() {
		return
	}
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if !active() {
		return
	}
	globalManager.workerErrorRate.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !active() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !active() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !active() {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !active() {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

var runtimeOnce sync.Once //nolint:gochecknoglobals // guards one-time collector registration

// RegisterRuntimeCollectors adds Go runtime and process metrics to the
// service registry. Later calls are no-ops.
func RegisterRuntimeCollectors() {
	runtimeOnce.Do(func() {
		customRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}
