package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"fxdash/internal/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// mock backend that pushes a fixed sequence of frames.
func createMockBackend(frames []string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		time.Sleep(200 * time.Millisecond)
	}))
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func testMetrics() *metrics.Metrics {
	return metrics.NewWithRegistry(prometheus.NewRegistry())
}

func collectEvents(t *testing.T, c *Client, want int) []Event {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	events := make(chan Event, 32)
	go c.Stream(ctx, events, 15*time.Second)

	var got []Event
	for len(got) < want {
		select {
		case e := <-events:
			got = append(got, e)
		case <-ctx.Done():
			t.Fatalf("timed out after %d/%d events", len(got), want)
		}
	}
	return got
}

func TestStreamDeliversLifecycleAndSnapshots(t *testing.T) {
	t.Parallel()

	server := createMockBackend([]string{
		`{"event":"status_update","data":{"bot_running":true,"instruments":{"EUR_USD":{"price":1.1,"active_trade":{"risk_level":"HIGH","confidence":"60%","recommendation":"STRONG SELL now"}}}}}`,
		`{"event":"bot_started"}`,
		`{"event":"bot_stopped"}`,
	})
	defer server.Close()

	c := NewClient(wsURL(server), nil, testMetrics())
	got := collectEvents(t, c, 4)

	if got[0].Kind != Connected {
		t.Fatalf("first event = %v, want Connected", got[0].Kind)
	}
	if got[1].Kind != SnapshotReceived || got[1].Snapshot == nil {
		t.Fatalf("second event = %+v, want snapshot", got[1])
	}

	snap := got[1].Snapshot
	if snap.BotRunning == nil || !*snap.BotRunning {
		t.Error("bot_running not decoded")
	}
	inst, ok := snap.Instruments["EUR_USD"]
	if !ok {
		t.Fatal("EUR_USD missing from snapshot")
	}
	if inst.Price == nil || *inst.Price != 1.1 {
		t.Errorf("price not decoded: %+v", inst.Price)
	}
	if inst.ActiveTrade == nil || inst.ActiveTrade.RiskLevel != "HIGH" {
		t.Errorf("active trade not decoded: %+v", inst.ActiveTrade)
	}

	if got[2].Kind != BotStarted {
		t.Errorf("third event = %v, want BotStarted", got[2].Kind)
	}
	if got[3].Kind != BotStopped {
		t.Errorf("fourth event = %v, want BotStopped", got[3].Kind)
	}
}

func TestStreamSkipsMalformedFrames(t *testing.T) {
	t.Parallel()

	server := createMockBackend([]string{
		`{"invalid": json}`,
		`{"event":"something_unknown","data":{}}`,
		`{"event":"status_update","data":{"instruments":{}}}`,
	})
	defer server.Close()

	c := NewClient(wsURL(server), nil, testMetrics())
	got := collectEvents(t, c, 2)

	if got[0].Kind != Connected {
		t.Fatalf("first event = %v, want Connected", got[0].Kind)
	}
	if got[1].Kind != SnapshotReceived {
		t.Fatalf("malformed frames should be skipped, got %v", got[1].Kind)
	}
}

func TestStreamReportsDisconnect(t *testing.T) {
	t.Parallel()

	server := createMockBackend(nil)
	defer server.Close()

	c := NewClient(wsURL(server), nil, testMetrics())
	got := collectEvents(t, c, 2)

	if got[0].Kind != Connected || got[1].Kind != Disconnected {
		t.Fatalf("events = %v, %v; want Connected then Disconnected", got[0].Kind, got[1].Kind)
	}
}

func TestStreamBackoffResetsAfterSuccessfulConnect(t *testing.T) {
	t.Parallel()

	// Backend that accepts every connection and drops it immediately.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer server.Close()

	c := NewClient(wsURL(server), nil, testMetrics())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	events := make(chan Event, 32)
	go c.Stream(ctx, events, 15*time.Second)

	var connects []time.Time
	for len(connects) < 4 {
		select {
		case e := <-events:
			if e.Kind == Connected {
				connects = append(connects, time.Now())
			}
		case <-ctx.Done():
			t.Fatalf("timed out after %d connects", len(connects))
		}
	}

	// Every connect succeeds, so each retry waits the initial backoff.
	// Without the reset the gaps climb 1s, 2s, 4s.
	for i := 1; i < len(connects); i++ {
		if gap := connects[i].Sub(connects[i-1]); gap > 2500*time.Millisecond {
			t.Errorf("gap %d = %v, backoff did not reset after successful connect", i, gap)
		}
	}
}

func TestSendWhileDisconnected(t *testing.T) {
	t.Parallel()

	c := NewClient("ws://localhost:1/ws", nil, testMetrics())
	if err := c.SendStart(context.Background()); err == nil {
		t.Error("SendStart without a connection must error")
	}
	if err := c.SendStop(context.Background()); err == nil {
		t.Error("SendStop without a connection must error")
	}
}

func TestSendCommandReachesBackend(t *testing.T) {
	t.Parallel()

	received := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, msg, err := conn.ReadMessage()
		if err == nil {
			received <- string(msg)
		}
	}))
	defer server.Close()

	c := NewClient(wsURL(server), nil, testMetrics())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	events := make(chan Event, 8)
	go c.Stream(ctx, events, 15*time.Second)

	// Wait for the connection before sending.
	select {
	case e := <-events:
		if e.Kind != Connected {
			t.Fatalf("first event = %v, want Connected", e.Kind)
		}
	case <-ctx.Done():
		t.Fatal("never connected")
	}

	if err := c.SendStart(ctx); err != nil {
		t.Fatalf("SendStart: %v", err)
	}

	select {
	case msg := <-received:
		if !strings.Contains(msg, `"start_bot"`) {
			t.Errorf("backend received %q, want start_bot envelope", msg)
		}
	case <-ctx.Done():
		t.Fatal("backend never received the command")
	}
}
