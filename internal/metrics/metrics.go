package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxLabelLen is the maximum length for a metric label value
const maxLabelLen = 64

func sanitizeLabel(s string) string {
	if s == "" {
		return "unknown"
	}
	s = strings.ReplaceAll(s, " ", "_")
	if len(s) > maxLabelLen {
		s = s[:maxLabelLen]
	}
	return s
}

// Metrics holds the Prometheus collectors for checkout and backend traffic.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	transitions     *prometheus.CounterVec
	stepErrors      *prometheus.CounterVec
	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	rateLimited     *prometheus.CounterVec
}

// New creates collectors on a private registry, including Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jcweb",
				Subsystem: "wizard",
				Name:      "transitions_total",
				Help:      "Checkout wizard step transitions by source and target step",
			},
			[]string{"from", "to"},
		),
		stepErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jcweb",
				Subsystem: "wizard",
				Name:      "errors_total",
				Help:      "Checkout wizard errors by step and error kind",
			},
			[]string{"step", "kind"},
		),
		backendRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jcweb",
				Subsystem: "backend",
				Name:      "requests_total",
				Help:      "Backend API calls by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		backendLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "jcweb",
				Subsystem: "backend",
				Name:      "request_duration_seconds",
				Help:      "Backend API call latency",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint"},
		),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jcweb",
				Subsystem: "http",
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the per-client rate limiter",
			},
			[]string{"route"},
		),
	}
	m.registry.MustRegister(
		m.transitions,
		m.stepErrors,
		m.backendRequests,
		m.backendLatency,
		m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordTransition counts a wizard step change.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(sanitizeLabel(from), sanitizeLabel(to)).Inc()
}

// RecordStepError counts a failed wizard step.
func (m *Metrics) RecordStepError(step, kind string) {
	if m == nil {
		return
	}
	m.stepErrors.WithLabelValues(sanitizeLabel(step), sanitizeLabel(kind)).Inc()
}

// ObserveBackend records one backend API call.
func (m *Metrics) ObserveBackend(endpoint, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	endpoint = sanitizeLabel(endpoint)
	m.backendRequests.WithLabelValues(endpoint, sanitizeLabel(outcome)).Inc()
	m.backendLatency.WithLabelValues(endpoint).Observe(took.Seconds())
}

// RecordRateLimited counts a throttled request.
func (m *Metrics) RecordRateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(sanitizeLabel(route)).Inc()
}
