// Package metrics records cache, cascade and orchestrator outcomes as
// Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spigell/interview-rehearsal/internal/cascade"
)

const (
	namespace = "interview_rehearsal"

	outcomeSuccess = "success"
)

// Metrics implements cache.Observer and cascade.Observer.
type Metrics struct {
	CacheLookups      *prometheus.CounterVec
	CacheWriteErrors  prometheus.Counter
	BackendAttempts   *prometheus.CounterVec
	BackendLatency    *prometheus.HistogramVec
	GenerationResults *prometheus.CounterVec
	EvaluationResults *prometheus.CounterVec
}

// New registers all collectors on reg. A nil reg keeps them unregistered,
// which is what tests and metric-less runs use.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Labels: result (hit, miss)
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Question cache lookups by result",
		}, []string{"result"}),
		CacheWriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "write_errors_total",
			Help:      "Question cache writes that failed",
		}),
		// Labels: backend, outcome (success or a failure reason)
		BackendAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cascade",
			Name:      "attempts_total",
			Help:      "Backend invocations by backend and outcome",
		}, []string{"backend", "outcome"}),
		BackendLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cascade",
			Name:      "attempt_duration_seconds",
			Help:      "Backend invocation latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"backend"}),
		// Labels: source (cache, backend, catalog)
		GenerationResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "results_total",
			Help:      "Question sets returned by source",
		}, []string{"source"}),
		// Labels: source (fast_path, backend, fallback)
		EvaluationResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "results_total",
			Help:      "Evaluations returned by source",
		}, []string{"source"}),
	}
}

func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) CacheWriteFailed() {
	m.CacheWriteErrors.Inc()
}

func (m *Metrics) BackendAttempt(backend string, reason cascade.Reason, elapsed time.Duration) {
	outcome := outcomeSuccess
	if reason != "" {
		outcome = string(reason)
	}
	m.BackendAttempts.WithLabelValues(backend, outcome).Inc()
	m.BackendLatency.WithLabelValues(backend).Observe(elapsed.Seconds())
}

func (m *Metrics) Generated(source string) {
	m.GenerationResults.WithLabelValues(source).Inc()
}

func (m *Metrics) Evaluated(source string) {
	m.EvaluationResults.WithLabelValues(source).Inc()
}
