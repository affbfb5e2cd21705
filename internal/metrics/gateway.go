package metrics

import "github.com/prometheus/client_golang/prometheus"

// Gateway Prometheus metrics.
var (
	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aegis",
			Name:      "response_cache_total",
			Help:      "Response cache lookups and write failures",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)

	RateLimitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aegis",
			Name:      "rate_limit_decisions_total",
			Help:      "Rate limiter decisions",
		},
		[]string{"result"}, // "admitted" / "denied"
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aegis",
			Name:      "queries_total",
			Help:      "Gateway query outcomes by mode",
		},
		[]string{"mode", "outcome"},
	)
)

var gatewayMetricsRegistered bool

// RegisterGatewayMetrics registers gateway metrics. Must be called once from main.
func RegisterGatewayMetrics() {
	if gatewayMetricsRegistered {
		return
	}
	prometheus.MustRegister(CacheTotal)
	prometheus.MustRegister(RateLimitTotal)
	prometheus.MustRegister(QueriesTotal)
	gatewayMetricsRegistered = true
}
