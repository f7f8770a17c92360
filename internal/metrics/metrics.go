// Package metrics provides Prometheus metrics for the dashboard client.
// Everything observable here is client-side plumbing: transport health,
// snapshot throughput, and command traffic toward the backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the dashboard client.
type Metrics struct {
	// Transport metrics
	WSReconnects      prometheus.Counter // Total number of websocket reconnect attempts
	SnapshotsReceived prometheus.Counter // Total number of status snapshots received
	EventsDropped     prometheus.Counter // Inbound events dropped on a full channel
	TransportErrors   prometheus.Counter // Transport-level errors (dial, read, write)

	// Command metrics
	CommandsSent     prometheus.Counter // Start/stop commands sent to the backend
	CommandsRejected prometheus.Counter // Commands refused because the transport was down

	// State gauges
	Connected        prometheus.Gauge // 1 when the backend channel is up
	BotRunning       prometheus.Gauge // 1 when the remote bot reports running
	SignalsSeenToday prometheus.Gauge // Client-side signal counter mirror
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for
// testing, where the global registry must stay untouched).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		WSReconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "ws_reconnects_total",
			Help: "Total number of websocket reconnect attempts",
		}),
		SnapshotsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "snapshots_received_total",
			Help: "Total number of status snapshots received",
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "events_dropped_total",
			Help: "Inbound events dropped because the event channel was full",
		}),
		TransportErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "transport_errors_total",
			Help: "Total number of transport errors",
		}),
		CommandsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "commands_sent_total",
			Help: "Start/stop commands sent to the backend",
		}),
		CommandsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "commands_rejected_total",
			Help: "Commands refused while disconnected",
		}),
		Connected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "backend_connected",
			Help: "1 when the backend event channel is connected",
		}),
		BotRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bot_running",
			Help: "1 when the remote bot reports running",
		}),
		SignalsSeenToday: factory.NewGauge(prometheus.GaugeOpts{
			Name: "signals_seen_today",
			Help: "Signals observed by this client session",
		}),
	}
}

// SetConnected flips the connectivity gauge.
func (m *Metrics) SetConnected(connected bool) {
	if connected {
		m.Connected.Set(1)
	} else {
		m.Connected.Set(0)
	}
}

// SetBotRunning flips the run-state gauge.
func (m *Metrics) SetBotRunning(running bool) {
	if running {
		m.BotRunning.Set(1)
	} else {
		m.BotRunning.Set(0)
	}
}
