// Package metrics exposes the Prometheus registry of userlist and instruments
// the HTTP surface. Domain metrics are defined in their respective packages
// (client, cache, ratelimit) to avoid circular dependencies.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registerer all userlist metrics are registered with.
var Registry = prometheus.DefaultRegisterer

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userlist_http_requests_total",
		Help: "Total HTTP requests served by route and status",
	}, []string{"route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "userlist_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds by route",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 15},
	}, []string{"route"})
)

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument wraps next, counting requests and observing latency under route.
func Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		httpRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - userlist_rate_limit_blocked_seconds (Gauge): Seconds left in the current block window
//   - userlist_rate_limit_blocks_total (Counter): Requests refused locally while blocked
//   - userlist_rate_limit_signals_total{status} (Counter): 429/503 responses that opened a block
//
// Cache Metrics (pkg/cache):
//   - userlist_cache_hits_total{layer} (Counter): Batch cache hits by layer (memory, redis)
//   - userlist_cache_misses_total (Counter): Misses that ran an upstream fetch
//   - userlist_cache_coalesced_total (Counter): Callers served by another caller's fetch
//   - userlist_cache_entries{layer} (Gauge): Cached batches held by the memory store
//   - userlist_cache_errors_total{operation} (Counter): Store get/set errors
//
// Upstream Metrics (pkg/client):
//   - userlist_upstream_requests_total{status} (Counter): Upstream requests by HTTP status
//   - userlist_upstream_request_duration_seconds (Histogram): Upstream latency
//   - userlist_upstream_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//   - userlist_upstream_retries_total{error_class} (Counter): Retry attempts
//   - userlist_upstream_retry_backoff_seconds{error_class} (Histogram): Backoff durations
//   - userlist_upstream_retry_exhausted_total{error_class} (Counter): Fetches that ran out of attempts
//
// HTTP Metrics (this package):
//   - userlist_http_requests_total{route, status} (Counter)
//   - userlist_http_request_duration_seconds{route} (Histogram)
//
// Example Prometheus Queries:
//
//   # Batch cache hit rate
//   sum(rate(userlist_cache_hits_total[5m])) /
//   (sum(rate(userlist_cache_hits_total[5m])) + sum(rate(userlist_cache_misses_total[5m])))
//
//   # Upstream fetches saved by coalescing
//   rate(userlist_cache_coalesced_total[5m])
//
//   # Upstream error rate
//   rate(userlist_upstream_errors_total[5m])
//
//   # P95 listing latency
//   histogram_quantile(0.95, rate(userlist_http_request_duration_seconds_bucket{route="/users"}[5m]))
