// Package metrics provides Prometheus metrics for postsearch
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one server instance. Every recording
// method is a no-op on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Cache metrics
	CacheLookupsTotal *prometheus.CounterVec
	CacheErrorsTotal  *prometheus.CounterVec

	// Store metrics
	StoreQueriesTotal  *prometheus.CounterVec
	StoreQueryDuration *prometheus.HistogramVec
	StoreResultsTotal  *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.CacheLookupsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postsearch_cache_lookups_total",
			Help: "Cache lookups by endpoint and result (hit, miss)",
		},
		[]string{"endpoint", "result"},
	)

	m.CacheErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postsearch_cache_errors_total",
			Help: "Cache failures by endpoint and operation (get, set, decode)",
		},
		[]string{"endpoint", "op"},
	)

	m.StoreQueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postsearch_store_queries_total",
			Help: "Document store queries by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	m.StoreQueryDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postsearch_store_query_duration_seconds",
			Help:    "Duration of document store queries in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"endpoint"},
	)

	m.StoreResultsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postsearch_store_results_total",
			Help: "Documents returned by the store",
		},
		[]string{"endpoint"},
	)

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postsearch_http_requests_total",
			Help: "HTTP requests by path and status code",
		},
		[]string{"path", "code"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postsearch_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	return m
}

// Registry exposes the underlying registry, for tests and custom handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordCacheHit counts a cache hit for endpoint
func (m *Metrics) RecordCacheHit(endpoint string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(endpoint, "hit").Inc()
}

// RecordCacheMiss counts a cache miss for endpoint
func (m *Metrics) RecordCacheMiss(endpoint string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(endpoint, "miss").Inc()
}

// RecordCacheError counts a failed cache operation
func (m *Metrics) RecordCacheError(endpoint, op string) {
	if m == nil {
		return
	}
	m.CacheErrorsTotal.WithLabelValues(endpoint, op).Inc()
}

// RecordStoreQuery records a store query, its outcome and result count
func (m *Metrics) RecordStoreQuery(endpoint string, duration time.Duration, results int, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StoreQueriesTotal.WithLabelValues(endpoint, status).Inc()
	m.StoreQueryDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	m.StoreResultsTotal.WithLabelValues(endpoint).Add(float64(results))
}

// RecordHTTPRequest records a served request
func (m *Metrics) RecordHTTPRequest(path string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(path, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
}
