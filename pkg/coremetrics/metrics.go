package coremetrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Facade operation metrics
	SaveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "corestore_save_duration_seconds",
			Help:    "Time taken to save a block, by storage name",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"storage"},
	)

	ReadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "corestore_read_duration_seconds",
			Help:    "Time taken to read a block, by storage name",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"storage"},
	)

	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corestore_operations_total",
			Help: "Total number of facade operations by kind and outcome",
		},
		[]string{"op", "outcome"},
	)

	// Throttle metrics
	ThrottleDelaySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "corestore_throttle_delay_seconds",
			Help:    "Delay imposed by the bandwidth throttle before a read or write",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"direction"},
	)

	// Concurrency engine metrics
	WorkerQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "corestore_worker_queue_depth",
			Help: "Number of queued-or-running jobs held by the engine's semaphore",
		},
		[]string{"direction"},
	)

	WorkerJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corestore_worker_jobs_total",
			Help: "Total number of jobs submitted to the concurrency engine",
		},
		[]string{"direction", "outcome"},
	)

	// Read cache metrics
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "corestore_cache_hits_total",
			Help: "Total number of read cache hits",
		},
	)

	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "corestore_cache_misses_total",
			Help: "Total number of read cache misses",
		},
	)

	CacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "corestore_cache_evictions_total",
			Help: "Total number of entries evicted from the read cache",
		},
	)

	// Consistency check metrics
	ConsistencyCheckFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "corestore_consistency_check_failures_total",
			Help: "Total number of post-write consistency checks that found a mismatch",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SaveDuration,
		ReadDuration,
		OperationsTotal,
		ThrottleDelaySeconds,
		WorkerQueueDepth,
		WorkerJobsTotal,
		CacheHitsTotal,
		CacheMissesTotal,
		CacheEvictionsTotal,
		ConsistencyCheckFailuresTotal,
	)
}

// Handler returns the Prometheus HTTP handler for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
