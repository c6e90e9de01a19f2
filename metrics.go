package kurir

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the request lifecycle and
// the stateful interceptors. It is safe for concurrent use.
type MetricsCollector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	retriesTotal *prometheus.CounterVec

	cacheHits   *prometheus.CounterVec
	authRetries *prometheus.CounterVec

	rateLimitWait prometheus.Histogram

	errorsTotal *prometheus.CounterVec
}

// NewMetricsCollector creates a collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer, e.g. a private registry in tests.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kurir_requests_total",
				Help: "Total number of HTTP requests executed",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kurir_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code", "endpoint"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kurir_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"method", "endpoint", "attempt"},
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kurir_cache_hits_total",
				Help: "Total number of requests served from the response cache",
			},
			[]string{"method", "endpoint"},
		),
		authRetries: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kurir_auth_retries_total",
				Help: "Total number of pipeline retries triggered by a token refresh",
			},
			[]string{"method", "endpoint"},
		),
		rateLimitWait: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kurir_rate_limit_wait_seconds",
				Help:    "Time spent waiting for rate limiter capacity",
				Buckets: prometheus.DefBuckets,
			},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kurir_errors_total",
				Help: "Total number of failed requests by error kind",
			},
			[]string{"kind", "method", "endpoint"},
		),
	}
}

// RecordRequest records a completed request with its final status.
func (m *MetricsCollector) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	m.requestsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.requestDuration.WithLabelValues(method, status, endpoint).Observe(duration.Seconds())
}

// RecordRetry records one retry attempt.
func (m *MetricsCollector) RecordRetry(method, endpoint string, attempt int) {
	m.retriesTotal.WithLabelValues(method, endpoint, strconv.Itoa(attempt)).Inc()
}

// RecordCacheHit records a request served from the cache interceptor.
func (m *MetricsCollector) RecordCacheHit(method, endpoint string) {
	m.cacheHits.WithLabelValues(method, endpoint).Inc()
}

// RecordAuthRetry records a pipeline retry requested after a token refresh.
func (m *MetricsCollector) RecordAuthRetry(method, endpoint string) {
	m.authRetries.WithLabelValues(method, endpoint).Inc()
}

// RecordRateLimitWait records a wait imposed by the rate-limit interceptor.
// Wire it via RateLimitInterceptor.OnWait.
func (m *MetricsCollector) RecordRateLimitWait(d time.Duration) {
	m.rateLimitWait.Observe(d.Seconds())
}

// RecordError records a failed request by taxonomy kind.
func (m *MetricsCollector) RecordError(kind Kind, method, endpoint string) {
	m.errorsTotal.WithLabelValues(kind.String(), method, endpoint).Inc()
}
