// Package dispatch translates the two user intents, start and stop,
// into outbound backend commands gated on connection state.
package dispatch

import (
	"context"

	"github.com/rs/zerolog/log"

	"fxdash/internal/actlog"
	"fxdash/internal/metrics"
)

// Sender is the outbound half of the transport adapter.
type Sender interface {
	SendStart(ctx context.Context) error
	SendStop(ctx context.Context) error
}

// ConnState reports the last known transport connectivity.
type ConnState interface {
	Connected() bool
}

// Dispatcher gates start/stop commands on connection state. Sends are
// fire-and-forget: confirmation arrives later as bot_started/bot_stopped
// events through the snapshot pipeline, never through a return value.
type Dispatcher struct {
	sender Sender
	conn   ConnState
	feed   *actlog.Log
	m      *metrics.Metrics
}

// New creates a dispatcher.
func New(sender Sender, conn ConnState, feed *actlog.Log, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{sender: sender, conn: conn, feed: feed, m: m}
}

// RequestStart emits the start command when connected. While
// disconnected it records a user-visible refusal and sends nothing.
func (d *Dispatcher) RequestStart(ctx context.Context) {
	if !d.conn.Connected() {
		d.feed.Append("Cannot start bot: not connected to backend")
		d.m.CommandsRejected.Inc()
		log.Warn().Msg("start refused: transport disconnected")
		return
	}
	if err := d.sender.SendStart(ctx); err != nil {
		log.Error().Err(err).Msg("start command send failed")
		return
	}
	d.feed.Append("Start command sent")
	d.m.CommandsSent.Inc()
}

// RequestStop emits the stop command when connected. While disconnected
// it is a silent no-op; the original client never logged a refusal for
// stop and the asymmetry is kept.
func (d *Dispatcher) RequestStop(ctx context.Context) {
	if !d.conn.Connected() {
		d.m.CommandsRejected.Inc()
		log.Debug().Msg("stop dropped: transport disconnected")
		return
	}
	if err := d.sender.SendStop(ctx); err != nil {
		log.Error().Err(err).Msg("stop command send failed")
		return
	}
	d.feed.Append("Stop command sent")
	d.m.CommandsSent.Inc()
}
