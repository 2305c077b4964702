// Package metrics provides Prometheus metrics for inference requests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/llama-chat/llama-chat/internal/conversation"
	"github.com/llama-chat/llama-chat/internal/inference"
)

const namespace = "llamachat"

// Metrics records coordinator lifecycle events and transcript growth. It
// implements inference.Observer.
type Metrics struct {
	// RequestsTotal counts lifecycle events by type.
	RequestsTotal *prometheus.CounterVec
	// RequestDuration measures backend latency by outcome.
	RequestDuration *prometheus.HistogramVec
	// InFlight is 1 while a backend call is running.
	InFlight prometheus.Gauge
	// TurnsTotal counts appended turns by role.
	TurnsTotal *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

var _ inference.Observer = (*Metrics)(nil)

// New registers the collectors with reg. A nil reg uses a fresh registry,
// which keeps tests and multiple coordinators from colliding.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of inference request lifecycle events",
			},
			[]string{"event"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of backend calls in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"outcome"},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Backend calls currently running (0 or 1)",
			},
		),
		TurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "turns_total",
				Help:      "Total number of transcript turns appended",
			},
			[]string{"role", "failed"},
		),
		gatherer: reg,
	}
}

// OnEvent records a coordinator event.
func (m *Metrics) OnEvent(event inference.Event) {
	m.RequestsTotal.WithLabelValues(string(event.Type)).Inc()

	switch event.Type {
	case inference.EventDispatched:
		m.InFlight.Inc()
	case inference.EventCompleted, inference.EventFailed, inference.EventDiscarded:
		// every dispatched call ends in exactly one of these
		m.InFlight.Dec()
		m.RequestDuration.WithLabelValues(string(event.Type)).Observe(event.Duration.Seconds())
	}
}

// ObserveTurn records an appended turn. Register it with Store.OnAppend.
func (m *Metrics) ObserveTurn(turn conversation.Turn) {
	failed := "false"
	if turn.Failed {
		failed = "true"
	}
	m.TurnsTotal.WithLabelValues(string(turn.Role), failed).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
