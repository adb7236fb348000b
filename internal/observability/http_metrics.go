package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics tracks API traffic.
type HTTPMetrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	rateLimited prometheus.Counter
}

var (
	defaultHTTPMetrics     *HTTPMetrics
	defaultHTTPMetricsOnce sync.Once
)

// NewHTTPMetrics returns the process-wide recorder on the default registry.
func NewHTTPMetrics() *HTTPMetrics {
	defaultHTTPMetricsOnce.Do(func() {
		defaultHTTPMetrics = newHTTPMetrics(prometheus.DefaultRegisterer)
	})
	return defaultHTTPMetrics
}

// NewHTTPMetricsWithRegisterer allows tests to provide a dedicated registry.
func NewHTTPMetricsWithRegisterer(reg prometheus.Registerer) *HTTPMetrics {
	return newHTTPMetrics(reg)
}

func newHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &HTTPMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kai",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kai",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kai",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
}

// ObserveRequest records a completed request.
func (m *HTTPMetrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// IncRateLimited counts a throttled request.
func (m *HTTPMetrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
