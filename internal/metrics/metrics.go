// Package metrics exposes Prometheus counters for transitions, gate scans and
// notification deliveries.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/frahmantamala/gatepass/internal/core/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	scans       *prometheus.CounterVec
	deliveries  *prometheus.CounterVec
	http        *prometheus.HistogramVec
}

// New builds a private registry so tests can create as many as they like.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatepass",
			Name:      "request_transitions_total",
			Help:      "Committed request transitions by action and resulting status.",
		}, []string{"action", "to_status"}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatepass",
			Name:      "gate_scans_total",
			Help:      "Gate scans by outcome.",
		}, []string{"outcome"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatepass",
			Name:      "notification_deliveries_total",
			Help:      "Notification deliveries by channel and outcome.",
		}, []string{"channel", "outcome"}),
		http: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gatepass",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.transitions, m.scans, m.deliveries, m.http,
	)
	return m
}

func (m *Metrics) ObserveScan(outcome string) {
	m.scans.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveDelivery(channel, outcome string) {
	m.deliveries.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, seconds float64) {
	m.http.WithLabelValues(method, route, fmt.Sprintf("%d", status)).Observe(seconds)
}

func (m *Metrics) HandleRequestTransitioned(ctx context.Context, event events.Event) error {
	evt, ok := event.(*events.RequestTransitionedEvent)
	if !ok {
		return fmt.Errorf("invalid event type: expected *RequestTransitionedEvent, got %T", event)
	}
	m.transitions.WithLabelValues(evt.Action, evt.ToStatus).Inc()
	return nil
}

func (m *Metrics) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeRequestTransitioned, m.HandleRequestTransitioned)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests and for callers adding their own collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
