package tirta

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the prefetch lifecycle
// and the built-in GraphQL client. It is safe for concurrent use.
type MetricsCollector struct {
	prefetchDuration *prometheus.HistogramVec
	fetchErrorsTotal prometheus.Counter

	constructionsTotal *prometheus.CounterVec

	snapshotEntries prometheus.Histogram
	snapshotBytes   prometheus.Histogram

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	graphqlRequestsTotal *prometheus.CounterVec
	graphqlRetriesTotal  prometheus.Counter
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using supplied registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		prefetchDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tirta_prefetch_duration_seconds",
				Help:    "Duration of wrapped InitialProps resolution in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		fetchErrorsTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "tirta_fetch_errors_total",
				Help: "Total number of swallowed data-fetch errors during prefetch",
			},
		),
		constructionsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tirta_client_constructions_total",
				Help: "Total number of client constructions by lifecycle mode",
			},
			[]string{"mode"},
		),
		snapshotEntries: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tirta_snapshot_entries",
				Help:    "Number of cache entries per extracted snapshot",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		snapshotBytes: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tirta_snapshot_bytes",
				Help:    "Serialized size of extracted snapshots in bytes",
				Buckets: prometheus.ExponentialBuckets(64, 4, 10),
			},
		),
		cacheHits: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "tirta_cache_hits_total",
				Help: "Total number of normalized cache hits",
			},
		),
		cacheMisses: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "tirta_cache_misses_total",
				Help: "Total number of normalized cache misses",
			},
		),
		graphqlRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tirta_graphql_requests_total",
				Help: "Total number of GraphQL HTTP requests by status code",
			},
			[]string{"status_code"},
		),
		graphqlRetriesTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "tirta_graphql_retries_total",
				Help: "Total number of GraphQL request retry attempts",
			},
		),
	}
}

// RecordPrefetch records one wrapped InitialProps resolution.
func (mc *MetricsCollector) RecordPrefetch(mode Mode, d time.Duration) {
	mc.prefetchDuration.WithLabelValues(mode.String()).Observe(d.Seconds())
}

// RecordFetchError counts one swallowed prefetch error.
func (mc *MetricsCollector) RecordFetchError() {
	mc.fetchErrorsTotal.Inc()
}

// RecordConstruction counts one client construction.
func (mc *MetricsCollector) RecordConstruction(mode Mode) {
	mc.constructionsTotal.WithLabelValues(mode.String()).Inc()
}

// RecordSnapshot records the footprint of one extracted snapshot.
func (mc *MetricsCollector) RecordSnapshot(entries, bytes int) {
	mc.snapshotEntries.Observe(float64(entries))
	mc.snapshotBytes.Observe(float64(bytes))
}

// RecordCacheHit counts one normalized cache hit.
func (mc *MetricsCollector) RecordCacheHit() {
	mc.cacheHits.Inc()
}

// RecordCacheMiss counts one normalized cache miss.
func (mc *MetricsCollector) RecordCacheMiss() {
	mc.cacheMisses.Inc()
}

// RecordGraphQLRequest counts one upstream GraphQL request.
func (mc *MetricsCollector) RecordGraphQLRequest(statusCode int) {
	mc.graphqlRequestsTotal.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordGraphQLRetry counts one retry attempt.
func (mc *MetricsCollector) RecordGraphQLRetry() {
	mc.graphqlRetriesTotal.Inc()
}
