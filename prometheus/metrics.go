package prometheus

import (
	"time"

	"catalog-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Catalog metrics
	CatalogOperationsCounter prometheus.CounterVec

	// Reconciliation job metrics
	SyncRunsTotal       prometheus.CounterVec
	SyncRecordsTotal    prometheus.CounterVec
	SyncRunDuration     prometheus.Histogram
	SyncRetriesTotal    prometheus.Counter
	WebhookErrorCounter prometheus.Counter

	// initialized guards the helper functions: job code records metrics
	// through them and must stay usable before/without registration.
	initialized bool
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(cfg *config.Config) {
	// Use metric prefix from configuration
	prefix := cfg.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Authentication metrics
	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	// Catalog metrics
	CatalogOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_operations_total",
			Help: "Total number of catalog operations",
		},
		[]string{"operation"},
	)

	// Reconciliation job metrics
	SyncRunsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_sync_runs_total",
			Help: "Total number of catalog reconciliation runs by final status",
		},
		[]string{"status"},
	)

	SyncRecordsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_sync_records_total",
			Help: "Total number of staging records processed by outcome",
		},
		[]string{"outcome"},
	)

	SyncRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_sync_run_duration_seconds",
			Help:    "Duration of catalog reconciliation runs in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	SyncRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_sync_retries_total",
			Help: "Total number of per-record retry attempts",
		},
	)

	WebhookErrorCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_webhook_errors_total",
			Help: "Total number of failed status webhook deliveries",
		},
	)

	initialized = true
}

// RecordCatalogOperation increments the counter for catalog operations
func RecordCatalogOperation(operation string) {
	if !initialized {
		return
	}
	CatalogOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordSyncRun records the final status and duration of a reconciliation run
func RecordSyncRun(status string, duration time.Duration) {
	if !initialized {
		return
	}
	SyncRunsTotal.WithLabelValues(status).Inc()
	SyncRunDuration.Observe(duration.Seconds())
}

// RecordSyncRecord increments the per-outcome record counter
func RecordSyncRecord(outcome string) {
	if !initialized {
		return
	}
	SyncRecordsTotal.WithLabelValues(outcome).Inc()
}

// RecordSyncRetry increments the retry attempt counter
func RecordSyncRetry() {
	if !initialized {
		return
	}
	SyncRetriesTotal.Inc()
}

// RecordWebhookError increments the failed webhook delivery counter
func RecordWebhookError() {
	if !initialized {
		return
	}
	WebhookErrorCounter.Inc()
}
