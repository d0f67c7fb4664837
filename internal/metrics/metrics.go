// Package metrics provides Prometheus metrics for relay
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the HTTP functions.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	ConversationsCreated prometheus.Counter
	MessagesSent         prometheus.Counter
	RateLimited          prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_http_requests_total",
				Help: "Total number of function requests",
			},
			[]string{"operation", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_http_request_duration_seconds",
				Help:    "Duration of function requests in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "relay_http_requests_in_flight",
				Help: "Number of function requests currently being processed",
			},
		),
		ConversationsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_conversations_created_total",
				Help: "Total number of conversations created",
			},
		),
		MessagesSent: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_messages_sent_total",
				Help: "Total number of messages sent",
			},
		),
		RateLimited: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_rate_limited_total",
				Help: "Total number of requests rejected by the send rate limiter",
			},
		),
	}
}

// RecordRequest records a finished request with its HTTP status class.
func (m *Metrics) RecordRequest(operation string, status int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(operation, statusClass(status)).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
