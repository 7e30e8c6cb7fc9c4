package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	HTTPRequests   *prometheus.CounterVec
	HTTPLatencyMS  *prometheus.HistogramVec
	Checkouts      *prometheus.CounterVec
	StockConflicts prometheus.Counter
	CouponsApplied *prometheus.CounterVec
}

func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commerce",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		HTTPLatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "commerce",
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commerce",
			Name:      "checkouts_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		StockConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "commerce",
			Name:      "stock_conflicts_total",
			Help:      "Checkouts aborted because a line lost the stock race.",
		}),
		CouponsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commerce",
			Name:      "coupons_applied_total",
			Help:      "Coupon application attempts by outcome.",
		}, []string{"outcome"}),
	}

	registerer.MustRegister(m.HTTPRequests, m.HTTPLatencyMS, m.Checkouts, m.StockConflicts, m.CouponsApplied)
	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}
