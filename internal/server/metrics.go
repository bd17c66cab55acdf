package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics are registered per server so tests can build several routers.
type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	analyses *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "codereview",
				Name:      "http_requests_total",
				Help:      "HTTP requests by route, method and status code.",
			},
			[]string{"route", "method", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "codereview",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
			},
			[]string{"route"},
		),
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "codereview",
				Name:      "analyses_total",
				Help:      "Analyses by language and outcome.",
			},
			[]string{"language", "outcome"},
		),
	}
	reg.MustRegister(m.requests, m.duration, m.analyses)
	return m
}
