package metrics

import "github.com/prometheus/client_golang/prometheus"

// Upstream provider Prometheus metrics.
var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aegis",
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream chat-completion requests",
		},
		[]string{"mode", "model", "status"},
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aegis",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"mode", "model"},
	)

	UpstreamTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aegis",
			Name:      "upstream_tokens_total",
			Help:      "Total upstream tokens consumed",
		},
		[]string{"model", "type"},
	)

	UpstreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aegis",
			Name:      "upstream_errors_total",
			Help:      "Total upstream errors",
		},
		[]string{"mode", "model", "error_type"},
	)
)

var upstreamMetricsRegistered bool

// RegisterUpstreamMetrics registers upstream metrics. Must be called once from main.
func RegisterUpstreamMetrics() {
	if upstreamMetricsRegistered {
		return
	}
	prometheus.MustRegister(UpstreamRequestsTotal)
	prometheus.MustRegister(UpstreamRequestDuration)
	prometheus.MustRegister(UpstreamTokensTotal)
	prometheus.MustRegister(UpstreamErrorsTotal)
	upstreamMetricsRegistered = true
}
