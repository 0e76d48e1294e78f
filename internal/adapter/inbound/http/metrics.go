package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the API.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	LoginAttempts    *prometheus.CounterVec
	Verifications    *prometheus.CounterVec
	ActiveLoginFlows prometheus.Gauge
	RateLimitKeys    prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pharmaledger",
				Name:      "requests_total",
				Help:      "Total number of API requests processed",
			},
			[]string{"method", "endpoint", "code"}, // code=2xx/3xx/4xx/5xx
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pharmaledger",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		LoginAttempts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pharmaledger",
				Name:      "login_attempts_total",
				Help:      "Login attempts by outcome",
			},
			[]string{"outcome"}, // succeeded/declined/invalid/error/throttled/busy
		),
		Verifications: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pharmaledger",
				Name:      "verifications_total",
				Help:      "Batch verifications by status",
			},
			[]string{"status"}, // authentic/counterfeit/empty/error
		),
		ActiveLoginFlows: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "pharmaledger",
				Name:      "active_login_flows",
				Help:      "Number of clients with a live login flow",
			},
		),
		RateLimitKeys: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "pharmaledger",
				Name:      "rate_limit_keys",
				Help:      "Number of active login throttling keys",
			},
		),
	}
}
