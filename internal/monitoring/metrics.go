package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors for the ordering service.
// Collectors are registered on a private registry so tests can build
// isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	ChatTurns         *prometheus.CounterVec
	ItemsResolved     *prometheus.CounterVec
	OrdersConfirmed   *prometheus.CounterVec
	RewriterFallbacks prometheus.Counter
	ChatLatency       *prometheus.HistogramVec
}

// NewMetrics creates and registers the service collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		ChatTurns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_turns_total",
				Help: "Chat turns handled, by restaurant and outcome",
			},
			[]string{"restaurant", "outcome"},
		),
		ItemsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "items_resolved_total",
				Help: "Menu items resolved into the basket",
			},
			[]string{"restaurant"},
		),
		OrdersConfirmed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_confirmed_total",
				Help: "Draft orders confirmed",
			},
			[]string{"restaurant"},
		),
		RewriterFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rewriter_fallbacks_total",
				Help: "Messages handled with the raw text after a rewriter failure",
			},
		),
		ChatLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chat_handling_seconds",
				Help:    "Time spent handling one chat turn",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"restaurant"},
		),
	}

	registry.MustRegister(
		m.ChatTurns,
		m.ItemsResolved,
		m.OrdersConfirmed,
		m.RewriterFallbacks,
		m.ChatLatency,
	)
	return m
}

// ObserveChat records one handled chat turn.
func (m *Metrics) ObserveChat(restaurant, outcome string, start time.Time) {
	m.ChatTurns.WithLabelValues(restaurant, outcome).Inc()
	m.ChatLatency.WithLabelValues(restaurant).Observe(time.Since(start).Seconds())
}

// Handler serves the registry in prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
