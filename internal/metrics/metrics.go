// Package metrics provides Prometheus collectors for code executions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Execution status label values.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusTimeout  = "timeout"
	StatusInternal = "internal_error"
)

// ExecutionBuckets covers sub-second scripts up to long plotting jobs.
var ExecutionBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// ExecutionsTotal counts run_python calls by outcome.
	ExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pyplot_executions_total",
			Help: "Code executions",
		},
		[]string{"status"},
	)

	// ExecutionDuration records subprocess wall-clock time in seconds.
	ExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pyplot_execution_duration_seconds",
			Help:    "Execution duration",
			Buckets: ExecutionBuckets,
		},
		[]string{"status"},
	)

	// ArtifactsTotal counts images returned to callers.
	ArtifactsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pyplot_artifacts_total",
			Help: "Image artifacts produced",
		},
	)

	// ExecutionsActive tracks executions currently running.
	ExecutionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pyplot_executions_active",
			Help: "Executions in flight",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ExecutionsTotal,
		ExecutionDuration,
		ArtifactsTotal,
		ExecutionsActive,
	)
}

// ObserveExecution records a finished execution.
func ObserveExecution(status string, d time.Duration, artifacts int) {
	ExecutionsTotal.WithLabelValues(status).Inc()
	ExecutionDuration.WithLabelValues(status).Observe(d.Seconds())
	if artifacts > 0 {
		ArtifactsTotal.Add(float64(artifacts))
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
