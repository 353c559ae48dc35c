package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK             = "ok"
	outcomeTransportError = "transport_error"
	outcomeDecodeError    = "decode_error"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quokka_client",
			Name:      "requests_total",
			Help:      "Generation requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "quokka_client",
			Name:      "request_duration_seconds",
			Help:      "Wall time of generation requests, including body read.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"endpoint"},
	)
)

func observeRequest(endpoint, outcome string, start time.Time) {
	requestsTotal.WithLabelValues(endpoint, outcome).Inc()
	requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
