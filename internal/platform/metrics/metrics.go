// Package metrics exposes the application's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskhub/taskhub-api/internal/resilience/breaker"
	"github.com/taskhub/taskhub-api/internal/resilience/ratelimit"
)

// Metrics holds all Prometheus instruments for the API. Instruments are
// registered on a private registry so tests can create instances freely.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimitDecisions  *prometheus.CounterVec
	breakerState        *prometheus.GaugeVec
	breakerTransitions  *prometheus.CounterVec
	notificationsSent   *prometheus.CounterVec
}

// New creates and registers all application metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhub_http_requests_total",
			Help: "Total HTTP requests by method, route, and status.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskhub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		rateLimitDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhub_ratelimit_decisions_total",
			Help: "Rate limiting decisions by category and result.",
		}, []string{"category", "result"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "taskhub_circuit_breaker_state",
			Help: "Current circuit breaker state (0 closed, 1 open, 2 half-open).",
		}, []string{"name"}),
		breakerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhub_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions by breaker and target state.",
		}, []string{"name", "to"}),
		notificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhub_notifications_sent_total",
			Help: "Notifications dispatched by result.",
		}, []string{"result"}),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.rateLimitDecisions,
		m.breakerState,
		m.breakerTransitions,
		m.notificationsSent,
	)
	return m
}

// Handler serves the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, durationSec float64) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(durationSec)
}

// RecordRateLimitDecision records one limiting decision.
func (m *Metrics) RecordRateLimitDecision(category ratelimit.Category, allowed bool) {
	result := "allowed"
	if !allowed {
		result = "blocked"
	}
	m.rateLimitDecisions.WithLabelValues(string(category), result).Inc()
}

// BreakerHook returns a state-change hook for circuit breakers that keeps
// the state gauge and transition counter current.
func (m *Metrics) BreakerHook() func(name string, from, to breaker.State) {
	return func(name string, from, to breaker.State) {
		m.breakerState.WithLabelValues(name).Set(float64(to))
		m.breakerTransitions.WithLabelValues(name, to.String()).Inc()
	}
}

// RecordNotification records a notification delivery attempt.
func (m *Metrics) RecordNotification(ok bool) {
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.notificationsSent.WithLabelValues(result).Inc()
}
