package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	upstreamRequestsTotal  *prometheus.CounterVec
	upstreamLatencySeconds *prometheus.HistogramVec
	aiFeedbackTotal        *prometheus.CounterVec
	draftOperationsTotal   *prometheus.CounterVec
	listDegradedTotal      prometheus.Counter
	rateLimitedTotal       *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the gateway.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gema",
			Subsystem: "daily_challenge",
			Name:      "http_requests_total",
			Help:      "Total number of gateway API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gema",
			Subsystem: "daily_challenge",
			Name:      "http_latency_seconds",
			Help:      "Latency distribution for gateway API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gema",
			Subsystem: "daily_challenge",
			Name:      "http_errors_total",
			Help:      "Total number of error responses returned by the gateway.",
		}, []string{"method", "route", "status"})

		upstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gema",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Calls made to the daily challenge backend.",
		}, []string{"operation", "status"})

		upstreamLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gema",
			Subsystem: "upstream",
			Name:      "latency_seconds",
			Help:      "Latency of calls to the daily challenge backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"})

		aiFeedbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gema",
			Subsystem: "ai",
			Name:      "feedback_requests_total",
			Help:      "AI feedback generations by provider and outcome.",
		}, []string{"provider", "outcome"})

		draftOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gema",
			Subsystem: "drafts",
			Name:      "operations_total",
			Help:      "Draft store operations by backend, operation and result.",
		}, []string{"backend", "operation", "result"})

		listDegradedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gema",
			Subsystem: "daily_challenge",
			Name:      "list_degraded_total",
			Help:      "Challenge list responses served empty because the backend failed.",
		})

		rateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gema",
			Subsystem: "daily_challenge",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by a rate limit scope.",
		}, []string{"scope"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			upstreamRequestsTotal,
			upstreamLatencySeconds,
			aiFeedbackTotal,
			draftOperationsTotal,
			listDegradedTotal,
			rateLimitedTotal,
		)
	})
}

// HTTPRequests exposes the counter for gateway requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for gateway requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for gateway error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// UpstreamRequests exposes the backend call counter.
func UpstreamRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return upstreamRequestsTotal
}

// UpstreamLatency exposes the backend latency histogram.
func UpstreamLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return upstreamLatencySeconds
}

// AIFeedback exposes the AI feedback counter.
func AIFeedback() *prometheus.CounterVec {
	RegisterMetrics()
	return aiFeedbackTotal
}

// DraftOperations exposes the draft store counter.
func DraftOperations() *prometheus.CounterVec {
	RegisterMetrics()
	return draftOperationsTotal
}

// ListDegraded exposes the degraded list counter.
func ListDegraded() prometheus.Counter {
	RegisterMetrics()
	return listDegradedTotal
}

// RateLimited exposes the rate limit rejection counter.
func RateLimited() *prometheus.CounterVec {
	RegisterMetrics()
	return rateLimitedTotal
}
