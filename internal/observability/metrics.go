// Package observability provides Prometheus metrics and OpenTelemetry tracing
// for the reply workflow.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// STAGING METRICS
// =============================================================================

var (
	stagingOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replyassist_staging_operations_total",
			Help: "Staging store operations by outcome",
		},
		[]string{"store", "op", "result"}, // op: stage, peek, remove, restore
	)

	stagingEvictedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replyassist_staging_evicted_total",
			Help: "Entries removed by the expiry sweep",
		},
		[]string{"store"},
	)
)

// =============================================================================
// WORKFLOW METRICS
// =============================================================================

var (
	prepareTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replyassist_prepare_total",
			Help: "Prepare cycles by outcome",
		},
		[]string{"status"}, // status: staged, gather_failed, generation_failed, stage_failed
	)

	prepareDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "replyassist_prepare_duration_seconds",
			Help:    "Prepare cycle duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	confirmTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replyassist_confirm_total",
			Help: "Confirm attempts by outcome",
		},
		[]string{"outcome"}, // outcome: confirmed, expired, not_found, mail_creation_failed, cancelled
	)

	sourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replyassist_source_fetch_total",
			Help: "Context source calls by outcome",
		},
		[]string{"source", "status"}, // status: ok, empty, error, ambiguous
	)
)

// RecordStagingOp records one staging store operation.
func RecordStagingOp(store, op, result string) {
	stagingOperationsTotal.WithLabelValues(store, op, result).Inc()
}

// RecordSweep records entries evicted by one sweep cycle.
func RecordSweep(store string, evicted int) {
	stagingEvictedTotal.WithLabelValues(store).Add(float64(evicted))
}

// RecordPrepare records the outcome and duration of a prepare cycle.
func RecordPrepare(status string, d time.Duration) {
	prepareTotal.WithLabelValues(status).Inc()
	prepareDurationSeconds.Observe(d.Seconds())
}

// RecordConfirm records the outcome of a confirm or cancel.
func RecordConfirm(outcome string) {
	confirmTotal.WithLabelValues(outcome).Inc()
}

// RecordSourceFetch records one context source call.
func RecordSourceFetch(source, status string) {
	sourceFetchTotal.WithLabelValues(source, status).Inc()
}
