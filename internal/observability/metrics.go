package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the paper agent. Metrics are
// organized by subsystem: pipeline cycles, feed sync, scoring, summaries,
// notifications, and external API calls. All counters and histograms are
// registered via promauto for automatic registration with the default
// Prometheus registry.
type Metrics struct {
	// CyclesStarted counts pipeline cycles initiated, labeled by trigger
	// (scheduled, manual).
	CyclesStarted *prometheus.CounterVec

	// CyclesCompleted counts pipeline cycles that finished without a fatal error.
	CyclesCompleted prometheus.Counter

	// CyclesFailed counts pipeline cycles that aborted.
	CyclesFailed prometheus.Counter

	// CycleDuration observes the end-to-end duration of a cycle in seconds.
	CycleDuration prometheus.Histogram

	// PapersFetched counts entries returned by feed pulls.
	PapersFetched prometheus.Counter

	// PapersInserted counts new papers admitted after deduplication.
	PapersInserted prometheus.Counter

	// PapersDuplicate counts feed entries dropped as already known.
	PapersDuplicate prometheus.Counter

	// PapersScored counts papers scored, labeled by outcome (scored, filtered, error).
	PapersScored *prometheus.CounterVec

	// PapersSummarized counts papers that received a summary.
	PapersSummarized prometheus.Counter

	// PapersPushed counts papers delivered in a digest.
	PapersPushed prometheus.Counter

	// ImportanceBoosts counts scores lifted to the important-author floor.
	ImportanceBoosts prometheus.Counter

	// NotificationsSent counts digests delivered, labeled by channel.
	NotificationsSent *prometheus.CounterVec

	// NotificationsFailed counts digest deliveries that failed, labeled by channel.
	NotificationsFailed *prometheus.CounterVec

	// ExternalRequestsTotal counts calls to external services, labeled by
	// service (arxiv, llm, pdf) and operation.
	ExternalRequestsTotal *prometheus.CounterVec

	// ExternalRequestsFailed counts failed calls to external services,
	// labeled by service and operation.
	ExternalRequestsFailed *prometheus.CounterVec

	// ExternalRequestDuration observes external call duration in seconds,
	// labeled by service and operation.
	ExternalRequestDuration *prometheus.HistogramVec

	// CooldownRejections counts forced re-runs refused by the cooldown
	// ledger, labeled by action.
	CooldownRejections *prometheus.CounterVec

	// LogStreamSubscribers gauges currently connected log stream clients.
	LogStreamSubscribers prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		CyclesStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_started_total",
			Help:      "Total number of pipeline cycles started",
		}, []string{"trigger"}),
		CyclesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_completed_total",
			Help:      "Total number of pipeline cycles completed",
		}),
		CyclesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_failed_total",
			Help:      "Total number of pipeline cycles that aborted",
		}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "End-to-end pipeline cycle duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		PapersFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_fetched_total",
			Help:      "Total number of feed entries fetched",
		}),
		PapersInserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_inserted_total",
			Help:      "Total number of new papers admitted after deduplication",
		}),
		PapersDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_duplicate_total",
			Help:      "Total number of feed entries dropped as duplicates",
		}),
		PapersScored: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_scored_total",
			Help:      "Total number of papers scored, by outcome",
		}, []string{"outcome"}),
		PapersSummarized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_summarized_total",
			Help:      "Total number of papers summarized",
		}),
		PapersPushed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_pushed_total",
			Help:      "Total number of papers delivered in a digest",
		}),
		ImportanceBoosts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "importance_boosts_total",
			Help:      "Total number of scores lifted to the important-author floor",
		}),
		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of digests delivered, by channel",
		}, []string{"channel"}),
		NotificationsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Total number of digest deliveries that failed, by channel",
		}, []string{"channel"}),
		ExternalRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_requests_total",
			Help:      "Total number of external service calls",
		}, []string{"service", "operation"}),
		ExternalRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_requests_failed_total",
			Help:      "Total number of failed external service calls",
		}, []string{"service", "operation"}),
		ExternalRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "external_request_duration_seconds",
			Help:      "External service call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "operation"}),
		CooldownRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cooldown_rejections_total",
			Help:      "Total number of forced re-runs refused by the cooldown ledger",
		}, []string{"action"}),
		LogStreamSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "log_stream_subscribers",
			Help:      "Number of currently connected log stream clients",
		}),
	}
}

// RecordCycleStarted records a pipeline cycle start.
func (m *Metrics) RecordCycleStarted(trigger string) {
	m.CyclesStarted.WithLabelValues(trigger).Inc()
}

// RecordCycleCompleted records a completed cycle and its duration.
func (m *Metrics) RecordCycleCompleted(durationSeconds float64) {
	m.CyclesCompleted.Inc()
	m.CycleDuration.Observe(durationSeconds)
}

// RecordCycleFailed records an aborted cycle and its duration.
func (m *Metrics) RecordCycleFailed(durationSeconds float64) {
	m.CyclesFailed.Inc()
	m.CycleDuration.Observe(durationSeconds)
}

// RecordSync records the outcome of one feed synchronization.
func (m *Metrics) RecordSync(fetched, inserted, duplicate int) {
	m.PapersFetched.Add(float64(fetched))
	m.PapersInserted.Add(float64(inserted))
	m.PapersDuplicate.Add(float64(duplicate))
}

// RecordScored records one scoring outcome (scored, filtered, error).
func (m *Metrics) RecordScored(outcome string) {
	m.PapersScored.WithLabelValues(outcome).Inc()
}

// RecordSummarized records one produced summary.
func (m *Metrics) RecordSummarized() {
	m.PapersSummarized.Inc()
}

// RecordPushed records papers delivered in a digest.
func (m *Metrics) RecordPushed(count int) {
	m.PapersPushed.Add(float64(count))
}

// RecordImportanceBoost records a score lifted to the important-author floor.
func (m *Metrics) RecordImportanceBoost() {
	m.ImportanceBoosts.Inc()
}

// RecordNotification records a digest delivery attempt for a channel.
func (m *Metrics) RecordNotification(channel string, err error) {
	if err != nil {
		m.NotificationsFailed.WithLabelValues(channel).Inc()
		return
	}
	m.NotificationsSent.WithLabelValues(channel).Inc()
}

// RecordExternalRequest records one external service call.
func (m *Metrics) RecordExternalRequest(service, operation string, durationSeconds float64, err error) {
	m.ExternalRequestsTotal.WithLabelValues(service, operation).Inc()
	m.ExternalRequestDuration.WithLabelValues(service, operation).Observe(durationSeconds)
	if err != nil {
		m.ExternalRequestsFailed.WithLabelValues(service, operation).Inc()
	}
}

// RecordCooldownRejection records a forced re-run refused by the ledger.
func (m *Metrics) RecordCooldownRejection(action string) {
	m.CooldownRejections.WithLabelValues(action).Inc()
}
