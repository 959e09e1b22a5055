package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	MutationsCommitted *prometheus.CounterVec
	MutationConflicts  prometheus.Counter
	ValidationFailures prometheus.Counter
	PostCommitFailures prometheus.Counter
	SubmitDuration     prometheus.Histogram

	BatchCasesProcessed prometheus.Counter
	BatchCasesErrored   prometheus.Counter
	RemoteRetries       prometheus.Counter

	OutboxPublished    prometheus.Counter
	OutboxPublishError prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		MutationsCommitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseflow_mutations_committed_total",
			Help: "Successful case mutations by event ID",
		}, []string{"event_id"}),
		MutationConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_mutation_conflicts_total",
			Help: "Case writes rejected by the optimistic concurrency check",
		}),
		ValidationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_validation_failures_total",
			Help: "Mutations aborted by a pre-commit hook",
		}),
		PostCommitFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_post_commit_failures_total",
			Help: "Post-commit hook errors (logged, never surfaced)",
		}),
		SubmitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "caseflow_submit_duration_seconds",
			Help:    "End-to-end latency of case event submission",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		BatchCasesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_batch_cases_processed_total",
			Help: "Cases successfully processed by batch runs",
		}),
		BatchCasesErrored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_batch_cases_errored_total",
			Help: "Cases that failed during batch runs",
		}),
		RemoteRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_remote_retries_total",
			Help: "Retries issued against the upstream case platform",
		}),
		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_outbox_published_total",
			Help: "Audit outbox rows published to Kafka",
		}),
		OutboxPublishError: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_outbox_publish_errors_total",
			Help: "Audit outbox publish attempts that failed",
		}),
	}
}

// ObserveSubmit records the latency of one submission.
func (m *Metrics) ObserveSubmit(d time.Duration) {
	if m == nil || m.SubmitDuration == nil {
		return
	}
	m.SubmitDuration.Observe(d.Seconds())
}
