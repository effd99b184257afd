package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Upstream (ip-api.com) Metrics
	LookupsTotal            *prometheus.CounterVec // by outcome: success or ipapi.Kind
	UpstreamRequestDuration *prometheus.HistogramVec

	// History store Metrics
	HistoryOperationsTotal   *prometheus.CounterVec
	HistoryOperationDuration *prometheus.HistogramVec
}

// New creates all metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on /metrics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"method", "endpoint", "status"},
		),

		LookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipapi_lookups_total",
				Help: "Total number of upstream lookups by outcome",
			},
			[]string{"result"},
		),

		UpstreamRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ipapi_request_duration_seconds",
				Help:    "Upstream lookup latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"scheme"},
		),

		HistoryOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "history_operations_total",
				Help: "Total number of history store operations",
			},
			[]string{"operation", "status"},
		),

		HistoryOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "history_operation_duration_seconds",
				Help:    "History store latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}
