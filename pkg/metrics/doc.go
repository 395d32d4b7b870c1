/*
Package metrics provides Prometheus metrics collection and exposition for lexidb.

Metrics are registered at package init against the default Prometheus registry
and exposed via an HTTP handler for scraping.

# Metrics Catalog

Index metrics:

  - lexidb_indexes_total: gauge, total number of indexes.
  - lexidb_documents_total{index_uid}: gauge, document count per index.
  - lexidb_database_size_bytes{index_uid}: gauge, on-disk environment size.

API metrics:

  - lexidb_api_requests_total{method,status}: counter.
  - lexidb_api_request_duration_seconds{method}: histogram.

Task queue metrics:

  - lexidb_queue_depth{status}: gauge, tasks currently in each status.
  - lexidb_tasks_enqueued_total{kind}: counter.
  - lexidb_tasks_finished_total{kind,status}: counter.
  - lexidb_task_duration_seconds{kind}: histogram.

Batch / indexing pipeline metrics:

  - lexidb_batching_latency_seconds: histogram, time spent planning a batch.
  - lexidb_batch_size: histogram, tasks per batch.
  - lexidb_batch_duration_seconds: histogram, batch execution time.
  - lexidb_documents_indexed_total{index_uid}: counter.
  - lexidb_documents_failed_total{index_uid}: counter.

Search metrics:

  - lexidb_search_requests_total{index_uid}: counter.
  - lexidb_search_duration_seconds{index_uid}: histogram.

Reconciler metrics:

  - lexidb_reconciliation_duration_seconds: histogram.
  - lexidb_reconciliation_cycles_total: counter.

Upgrade metrics:

  - lexidb_upgrade_migrations_applied_total: counter.

# Timer Helper

Timer is a convenience wrapper for timing an operation and observing the
elapsed duration into a histogram, with or without labels:

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDuration(metrics.SearchDuration.WithLabelValues(indexUID))

# Collector

Collector polls a Source (satisfied by the engine handle) every 15 seconds
and updates the index and queue-depth gauges. It never imports the engine
package directly, to avoid a package cycle; it depends only on the Source
interface defined in this package.

# Usage

	http.Handle("/metrics", metrics.Handler())
*/
package metrics
