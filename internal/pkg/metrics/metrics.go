package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// CacheRequests counts cache lookups by namespace and outcome
	// (hit, stale, miss).
	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_cache_requests_total",
			Help: "Cache lookups by namespace and outcome.",
		},
		[]string{"namespace", "outcome"},
	)

	// QueueDepth tracks the number of requests waiting for dispatch.
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolio_request_queue_depth",
			Help: "Number of requests currently waiting in the rate-limited queue.",
		},
	)

	// UpstreamRequests counts attempts against the market data API by result
	// (ok, throttled, http_error, network_error).
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_upstream_requests_total",
			Help: "Upstream HTTP attempts by result.",
		},
		[]string{"result"},
	)

	// RequestRetries counts retry sleeps performed by fetchWithRetry.
	RequestRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "portfolio_request_retries_total",
			Help: "Retries performed after throttled or failed upstream attempts.",
		},
	)

	// RateLimitMarks counts the times the client was marked as recently
	// rate limited.
	RateLimitMarks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "portfolio_rate_limit_marks_total",
			Help: "Times a 429 response marked the client as rate limited.",
		},
	)
)

// MustRegisterMetrics registers all collectors with the default registry.
// Call once from main before serving /metrics.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		CacheRequests,
		QueueDepth,
		UpstreamRequests,
		RequestRetries,
		RateLimitMarks,
	)
}
