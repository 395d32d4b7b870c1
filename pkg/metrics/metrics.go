package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Index metrics
	IndexesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lexidb_indexes_total",
			Help: "Total number of indexes",
		},
	)

	DocumentsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lexidb_documents_total",
			Help: "Total number of documents by index",
		},
		[]string{"index_uid"},
	)

	DatabaseSizeBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lexidb_database_size_bytes",
			Help: "On-disk size of an index's environment in bytes",
		},
		[]string{"index_uid"},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexidb_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lexidb_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Task queue metrics
	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lexidb_queue_depth",
			Help: "Number of tasks currently enqueued, by status",
		},
		[]string{"status"},
	)

	TasksEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexidb_tasks_enqueued_total",
			Help: "Total number of tasks enqueued by kind",
		},
		[]string{"kind"},
	)

	TasksFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexidb_tasks_finished_total",
			Help: "Total number of tasks that reached a terminal status",
		},
		[]string{"kind", "status"},
	)

	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lexidb_task_duration_seconds",
			Help:    "Time from a task being picked up to finishing in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Batch / indexing pipeline metrics
	BatchingLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lexidb_batching_latency_seconds",
			Help:    "Time spent planning a batch before execution starts",
			Buckets: prometheus.DefBuckets,
		},
	)

	BatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lexidb_batch_size",
			Help:    "Number of tasks grouped into a single batch",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lexidb_batch_duration_seconds",
			Help:    "Time taken to execute a batch end to end",
			Buckets: prometheus.DefBuckets,
		},
	)

	DocumentsIndexedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexidb_documents_indexed_total",
			Help: "Total number of documents successfully indexed by index",
		},
		[]string{"index_uid"},
	)

	DocumentsFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexidb_documents_failed_total",
			Help: "Total number of documents that failed indexing by index",
		},
		[]string{"index_uid"},
	)

	// Search metrics
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexidb_search_requests_total",
			Help: "Total number of search requests by index",
		},
		[]string{"index_uid"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lexidb_search_duration_seconds",
			Help:    "Search request duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"index_uid"},
	)

	// Reconciler metrics
	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lexidb_reconciliation_duration_seconds",
			Help:    "Time taken for a reconciliation cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReconciliationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lexidb_reconciliation_cycles_total",
			Help: "Total number of reconciliation cycles completed",
		},
	)

	// Upgrade metrics
	UpgradeMigrationsAppliedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lexidb_upgrade_migrations_applied_total",
			Help: "Total number of schema migrations applied",
		},
	)
)

func init() {
	prometheus.MustRegister(IndexesTotal)
	prometheus.MustRegister(DocumentsTotal)
	prometheus.MustRegister(DatabaseSizeBytes)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)

	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(TasksEnqueuedTotal)
	prometheus.MustRegister(TasksFinishedTotal)
	prometheus.MustRegister(TaskDuration)

	prometheus.MustRegister(BatchingLatency)
	prometheus.MustRegister(BatchSize)
	prometheus.MustRegister(BatchDuration)
	prometheus.MustRegister(DocumentsIndexedTotal)
	prometheus.MustRegister(DocumentsFailedTotal)

	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)

	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(ReconciliationCyclesTotal)

	prometheus.MustRegister(UpgradeMigrationsAppliedTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
