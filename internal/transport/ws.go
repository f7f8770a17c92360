// Package transport maintains the persistent event channel to the
// trading backend. It surfaces connection lifecycle and named inbound
// messages as a single ordered event stream and accepts fire-and-forget
// outbound commands.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"fxdash/internal/metrics"
	"fxdash/internal/view"
)

// Kind identifies one inbound event.
type Kind int

const (
	// Connected reports that the channel (re)opened.
	Connected Kind = iota
	// Disconnected reports that the channel dropped.
	Disconnected
	// SnapshotReceived carries a status snapshot (push or bootstrap).
	SnapshotReceived
	// BotStarted confirms a start command took effect.
	BotStarted
	// BotStopped confirms a stop command took effect.
	BotStopped
)

// Event is one entry of the ordered inbound stream. Snapshot is non-nil
// only for SnapshotReceived.
type Event struct {
	Kind     Kind
	Snapshot *view.Snapshot
}

// Outbound command names understood by the backend.
const (
	cmdStartBot = "start_bot"
	cmdStopBot  = "stop_bot"
)

// envelope is the wire framing for both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client is the websocket transport adapter. One Stream call owns the
// reconnect loop for the lifetime of the context; Send may be called
// from any goroutine and writes through the current connection, if any.
type Client struct {
	url       string
	bootstrap *Bootstrap
	m         *metrics.Metrics

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewClient creates a transport client for the given websocket URL.
// bootstrap may be nil to skip the initial status fetch.
func NewClient(url string, bootstrap *Bootstrap, m *metrics.Metrics) *Client {
	return &Client{url: url, bootstrap: bootstrap, m: m}
}

// Stream runs the connect/read/reconnect loop until the context is
// canceled, delivering events in arrival order on the events channel.
func (c *Client) Stream(ctx context.Context, events chan<- Event, ping time.Duration) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			connected, err := c.streamOnce(ctx, events, ping)
			if connected {
				// A connection that got as far as the read loop starts
				// the next retry from scratch.
				backoff = time.Second
			}
			if err != nil {
				log.Warn().Err(err).Dur("backoff", backoff).Msg("backend connection lost, reconnecting")
				c.m.WSReconnects.Inc()
				c.m.TransportErrors.Inc()
				c.deliver(ctx, events, Event{Kind: Disconnected})

				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return ctx.Err()
				}

				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
		}
	}
}

// streamOnce runs a single connection attempt. The bool reports whether
// the dial succeeded and the connection was surfaced to the consumer,
// regardless of how it ended.
func (c *Client) streamOnce(ctx context.Context, events chan<- Event, ping time.Duration) (bool, error) {
	log.Info().Str("url", c.url).Msg("connecting to backend event channel")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return false, fmt.Errorf("dial failed: %w", err)
	}
	defer func() {
		c.setConn(nil)
		conn.Close()
		log.Debug().Msg("backend connection closed")
	}()

	conn.SetReadLimit(512 * 1024)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	c.setConn(conn)
	c.deliver(ctx, events, Event{Kind: Connected})
	log.Info().Msg("backend connection established")

	// One-shot status fetch so the dashboard does not stay blank until
	// the first push arrives.
	if c.bootstrap != nil {
		if snap, err := c.bootstrap.Fetch(ctx); err != nil {
			log.Warn().Err(err).Msg("bootstrap status fetch failed")
			c.m.TransportErrors.Inc()
		} else {
			c.deliver(ctx, events, Event{Kind: SnapshotReceived, Snapshot: snap})
		}
	}

	pingTicker := time.NewTicker(ping)
	defer pingTicker.Stop()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-pingTicker.C:
				if err := c.writeControl(websocket.PingMessage); err != nil {
					log.Debug().Err(err).Msg("ping failed")
					return
				}
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		default:
		}

		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return true, fmt.Errorf("connection closed: %w", err)
			}
			return true, fmt.Errorf("read message failed: %w", err)
		}

		var env envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			log.Debug().Err(err).Str("message", string(msg)).Msg("unparsable frame, skipping")
			continue
		}

		switch env.Event {
		case "status_update":
			var snap view.Snapshot
			if err := json.Unmarshal(env.Data, &snap); err != nil {
				log.Debug().Err(err).Msg("malformed status_update payload, skipping")
				c.m.TransportErrors.Inc()
				continue
			}
			c.m.SnapshotsReceived.Inc()
			// Snapshots are refreshed every second by the backend, so a
			// full consumer just skips this one instead of stalling reads.
			select {
			case events <- Event{Kind: SnapshotReceived, Snapshot: &snap}:
			default:
				c.m.EventsDropped.Inc()
				log.Warn().Msg("event channel full, dropping snapshot")
			}
		case "bot_started":
			c.deliver(ctx, events, Event{Kind: BotStarted})
		case "bot_stopped":
			c.deliver(ctx, events, Event{Kind: BotStopped})
		default:
			if env.Event != "" {
				log.Debug().Str("event", env.Event).Msg("unknown backend event")
			}
		}
	}
}

// SendStart emits the start command on the current connection.
func (c *Client) SendStart(ctx context.Context) error { return c.send(ctx, cmdStartBot) }

// SendStop emits the stop command on the current connection.
func (c *Client) SendStop(ctx context.Context) error { return c.send(ctx, cmdStopBot) }

func (c *Client) send(_ context.Context, event string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		c.m.TransportErrors.Inc()
		return fmt.Errorf("send %s: not connected", event)
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := c.conn.WriteJSON(envelope{Event: event}); err != nil {
		c.m.TransportErrors.Inc()
		return fmt.Errorf("send %s: %w", event, err)
	}
	return nil
}

func (c *Client) writeControl(messageType int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteControl(messageType, []byte("ping"), time.Now().Add(10*time.Second))
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// deliver hands an event to the consumer. Connection-lifecycle and
// snapshot ordering matters, so delivery blocks rather than drops unless
// the context ends first.
func (c *Client) deliver(ctx context.Context, events chan<- Event, e Event) {
	select {
	case events <- e:
	case <-ctx.Done():
	}
}
