package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process' Prometheus collectors on a private registry.
// Every method is safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	commandsTotal    *prometheus.CounterVec
	noticesTotal     prometheus.Counter
	pushFailures     prometheus.Counter
	ticksTotal       prometheus.Counter
	tickDuration     prometheus.Histogram
	playersConnected prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realms_commands_total",
			Help: "Commands handled by action.",
		}, []string{"action"}),
		noticesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realms_notices_total",
			Help: "System notices sent to players.",
		}),
		pushFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realms_push_failures_total",
			Help: "Outbound pushes that could not be delivered.",
		}),
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realms_ticks_total",
			Help: "Spawn ticks processed.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "realms_tick_duration_seconds",
			Help:    "Time spent processing one spawn tick.",
			Buckets: prometheus.DefBuckets,
		}),
		playersConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realms_players_connected",
			Help: "Currently connected players.",
		}),
	}

	m.registry.MustRegister(
		m.commandsTotal,
		m.noticesTotal,
		m.pushFailures,
		m.ticksTotal,
		m.tickDuration,
		m.playersConnected,
	)

	return m
}

func (m *Metrics) CommandHandled(action string) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(action).Inc()
}

func (m *Metrics) NoticeSent() {
	if m == nil {
		return
	}
	m.noticesTotal.Inc()
}

func (m *Metrics) PushFailed() {
	if m == nil {
		return
	}
	m.pushFailures.Inc()
}

func (m *Metrics) TickProcessed(d time.Duration) {
	if m == nil {
		return
	}
	m.ticksTotal.Inc()
	m.tickDuration.Observe(d.Seconds())
}

func (m *Metrics) PlayerConnected() {
	if m == nil {
		return
	}
	m.playersConnected.Inc()
}

func (m *Metrics) PlayerDisconnected() {
	if m == nil {
		return
	}
	m.playersConnected.Dec()
}

// Registry exposes the collectors, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
