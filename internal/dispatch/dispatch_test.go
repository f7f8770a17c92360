package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"fxdash/internal/actlog"
	"fxdash/internal/metrics"
)

type fakeSender struct {
	starts, stops int
	err           error
}

func (f *fakeSender) SendStart(context.Context) error {
	f.starts++
	return f.err
}

func (f *fakeSender) SendStop(context.Context) error {
	f.stops++
	return f.err
}

type fakeConn struct{ connected bool }

func (f fakeConn) Connected() bool { return f.connected }

func newTestDispatcher(connected bool) (*Dispatcher, *fakeSender, *actlog.Log) {
	sender := &fakeSender{}
	feed := actlog.New(nil)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	return New(sender, fakeConn{connected: connected}, feed, m), sender, feed
}

func TestRequestStartWhileDisconnected(t *testing.T) {
	t.Parallel()

	d, sender, feed := newTestDispatcher(false)
	d.RequestStart(context.Background())

	if sender.starts != 0 {
		t.Errorf("start sent while disconnected: %d sends", sender.starts)
	}
	if feed.Len() != 1 {
		t.Fatalf("expected exactly one refusal log entry, got %d", feed.Len())
	}
	if got := feed.Entries()[0].Message; got != "Cannot start bot: not connected to backend" {
		t.Errorf("unexpected refusal message: %q", got)
	}
}

func TestRequestStartWhileConnected(t *testing.T) {
	t.Parallel()

	d, sender, feed := newTestDispatcher(true)
	d.RequestStart(context.Background())

	if sender.starts != 1 {
		t.Errorf("expected one start send, got %d", sender.starts)
	}
	if feed.Len() != 1 {
		t.Errorf("expected a confirmation log entry, got %d", feed.Len())
	}
}

func TestRequestStopWhileDisconnectedIsSilent(t *testing.T) {
	t.Parallel()

	d, sender, feed := newTestDispatcher(false)
	d.RequestStop(context.Background())

	if sender.stops != 0 {
		t.Errorf("stop sent while disconnected: %d sends", sender.stops)
	}
	// Unlike start, a disconnected stop leaves no log entry.
	if feed.Len() != 0 {
		t.Errorf("expected no log entries, got %d", feed.Len())
	}
}

func TestRequestStopWhileConnected(t *testing.T) {
	t.Parallel()

	d, sender, _ := newTestDispatcher(true)
	d.RequestStop(context.Background())

	if sender.stops != 1 {
		t.Errorf("expected one stop send, got %d", sender.stops)
	}
}

func TestSendFailureDoesNotLogSuccess(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{err: errors.New("write failed")}
	feed := actlog.New(nil)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	d := New(sender, fakeConn{connected: true}, feed, m)

	d.RequestStart(context.Background())
	if feed.Len() != 0 {
		t.Errorf("failed send must not log a confirmation, got %d entries", feed.Len())
	}
}
