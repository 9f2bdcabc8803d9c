package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rankcore/pkg/rankings"
)

// PrometheusMetricsRecorder exports service metrics through a dedicated
// Prometheus registry. Callers expose the registry via promhttp in their
// serving binary.
type PrometheusMetricsRecorder struct {
	registry  *prometheus.Registry
	durations *prometheus.HistogramVec
	results   *prometheus.CounterVec
	dropped   *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder constructs a recorder backed by its own
// registry so collector names cannot collide with other registrations in
// the process.
func NewPrometheusMetricsRecorder() *PrometheusMetricsRecorder {
	registry := prometheus.NewRegistry()
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rankcore",
		Name:      "operation_duration_seconds",
		Help:      "Latency of ranking service operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rankcore",
		Name:      "operation_results_total",
		Help:      "Ranking service operation outcomes by status.",
	}, []string{"operation", "status"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rankcore",
		Name:      "dropped_rank_rows_total",
		Help:      "Rank rows excluded while building rank ranges, by cause.",
	}, []string{"source", "column", "cause"})

	registry.MustRegister(durations, results, dropped)

	return &PrometheusMetricsRecorder{
		registry:  registry,
		durations: durations,
		results:   results,
		dropped:   dropped,
	}
}

// Registry exposes the underlying registry for HTTP handlers.
func (r *PrometheusMetricsRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe implements the MetricsRecorder interface.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
	r.results.WithLabelValues(operation, status).Inc()
}

// ObserveDroppedRanks implements the MetricsRecorder interface.
func (r *PrometheusMetricsRecorder) ObserveDroppedRanks(_ context.Context, source rankings.Source, column string, missing, unparsable int64) {
	if missing > 0 {
		r.dropped.WithLabelValues(string(source), column, "missing").Add(float64(missing))
	}
	if unparsable > 0 {
		r.dropped.WithLabelValues(string(source), column, "unparsable").Add(float64(unparsable))
	}
}
