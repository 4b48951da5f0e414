// Package metrics registers the Prometheus series the service updates:
//   - http_requests_total{method,path,status}
//   - http_request_duration_seconds{method,path,status}
//   - steampay_orders_total{result}  (created|paid|duplicate|failed)
//   - steampay_topup_transfers_total{result}  (ok|dry_run|skipped|error)
//
// All collectors are registered in init() and served by the /metrics route.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"method", "path", "status"},
	)

	Orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steampay_orders_total",
			Help: "Fulfillment orders by outcome",
		},
		[]string{"result"},
	)

	TopupTransfers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steampay_topup_transfers_total",
			Help: "Auto-topup transfer attempts by outcome",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, Orders, TopupTransfers)
}
