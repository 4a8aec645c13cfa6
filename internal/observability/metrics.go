package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	searchDuration  *prometheus.HistogramVec
	searchTotal     *prometheus.CounterVec
	branchFailures  *prometheus.CounterVec
	degradedTotal   prometheus.Counter
	resultsReturned *prometheus.HistogramVec

	storeOpDuration *prometheus.HistogramVec
	memoryEntries   prometheus.Gauge

	embedCacheHits   prometheus.Counter
	embedCacheMisses prometheus.Counter
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			searchDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "memory_search_duration_seconds",
					Help:    "Search duration in seconds by mode.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"mode"},
			),
			searchTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "memory_search_total",
					Help: "Total searches by mode and status.",
				},
				[]string{"mode", "status"},
			),
			branchFailures: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "memory_search_branch_failures_total",
					Help: "Hybrid sub-search failures by branch.",
				},
				[]string{"branch"},
			),
			degradedTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "memory_search_degraded_total",
					Help: "Hybrid searches that completed on a single branch.",
				},
			),
			resultsReturned: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "memory_search_results",
					Help:    "Result count per search by mode.",
					Buckets: []float64{0, 1, 2, 5, 10, 20},
				},
				[]string{"mode"},
			),
			storeOpDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "memory_store_op_duration_seconds",
					Help:    "Store operation duration in seconds by operation.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"op"},
			),
			memoryEntries: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "memory_entries_active",
					Help: "Current active memory record count.",
				},
			),
			embedCacheHits: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "embedding_cache_hits_total",
					Help: "Embedding cache hits.",
				},
			),
			embedCacheMisses: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "embedding_cache_misses_total",
					Help: "Embedding cache misses.",
				},
			),
		}

		prometheus.MustRegister(
			m.searchDuration,
			m.searchTotal,
			m.branchFailures,
			m.degradedTotal,
			m.resultsReturned,
			m.storeOpDuration,
			m.memoryEntries,
			m.embedCacheHits,
			m.embedCacheMisses,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

// MetricsHandler exposes the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

// RecordSearch records one completed top-level search.
func RecordSearch(mode string, duration time.Duration, status string, results int) {
	m := getMetrics()
	m.searchDuration.WithLabelValues(mode).Observe(duration.Seconds())
	m.searchTotal.WithLabelValues(mode, status).Inc()
	m.resultsReturned.WithLabelValues(mode).Observe(float64(results))
}

// RecordBranchFailure counts a failed hybrid sub-search.
func RecordBranchFailure(branch string) {
	getMetrics().branchFailures.WithLabelValues(branch).Inc()
}

// RecordDegraded counts a hybrid search that fell back to a single branch.
func RecordDegraded() {
	getMetrics().degradedTotal.Inc()
}

// RecordStoreOp records a store operation duration.
func RecordStoreOp(op string, duration time.Duration) {
	getMetrics().storeOpDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// SetMemoryEntries sets the active record gauge.
func SetMemoryEntries(total int) {
	getMetrics().memoryEntries.Set(float64(total))
}

// RecordEmbedCacheHit counts an embedding cache hit.
func RecordEmbedCacheHit() {
	getMetrics().embedCacheHits.Inc()
}

// RecordEmbedCacheMiss counts an embedding cache miss.
func RecordEmbedCacheMiss() {
	getMetrics().embedCacheMisses.Inc()
}
