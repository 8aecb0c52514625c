package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the intentions service
type Metrics struct {
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec
	ValidationFailuresTotal   *prometheus.CounterVec
	HeaderMatchesTotal        *prometheus.CounterVec
	IntentionsStored          prometheus.Gauge
	EventsPublishedTotal      *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intentions_api_requests_total",
				Help: "Total number of admin API requests",
			},
			[]string{"method", "route", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "intentions_api_request_duration_seconds",
				Help:    "Admin API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ValidationFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intentions_validation_failures_total",
				Help: "Total number of rejected writes by kind of record",
			},
			[]string{"kind"},
		),
		HeaderMatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intentions_header_match_previews_total",
				Help: "Total number of header match previews by header type and result",
			},
			[]string{"header_type", "matched"},
		),
		IntentionsStored: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "intentions_stored",
				Help: "Number of stored intentions",
			},
		),
		EventsPublishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intentions_events_published_total",
				Help: "Total number of intention change events",
			},
			[]string{"type"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
		m.ValidationFailuresTotal,
		m.HeaderMatchesTotal,
		m.IntentionsStored,
		m.EventsPublishedTotal,
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler exposing the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
