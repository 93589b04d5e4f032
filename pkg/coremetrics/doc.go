/*
Package coremetrics defines and registers the storage engine's Prometheus
metrics and exposes them for scraping.

# Metrics Catalog

corestore_save_duration_seconds{storage}, corestore_read_duration_seconds{storage}:
  - Histograms. Time spent in Storage.Save / Storage.Read, per storage
    module name.

corestore_operations_total{op,outcome}:
  - Counter. One increment per block Save or Read job, labeled by
    operation name (save/read) and outcome (success/failure).

corestore_throttle_delay_seconds{direction}:
  - Histogram. Delay the bandwidth throttle computed before a read or
    write, labeled "read" or "write".

corestore_worker_queue_depth{direction}:
  - Gauge. Jobs currently held by the engine's read or write semaphore
    (running + queued).

corestore_worker_jobs_total{direction,outcome}:
  - Counter. Jobs submitted to the concurrency engine.

corestore_cache_hits_total, corestore_cache_misses_total, corestore_cache_evictions_total:
  - Counters. Read cache hit/miss/eviction totals.

corestore_consistency_check_failures_total:
  - Counter. Post-write consistency checks that found a mismatch between
    what was written and what was read back.

# Usage

	timer := coremetrics.NewTimer()
	// ... perform a save ...
	timer.ObserveDurationVec(coremetrics.SaveDuration, storageName)

	coremetrics.OperationsTotal.WithLabelValues("save", "success").Inc()

	http.Handle("/metrics", coremetrics.Handler())

# Design Patterns

All metrics are package-level variables registered once in init(); callers
never register their own. Label sets stay low-cardinality (storage name,
direction, outcome) — never a block or version UID.
*/
package coremetrics
