package ui

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxdash/internal/actlog"
	"fxdash/internal/view"
)

type fakeSource struct {
	model  view.Model
	uptime string
}

func (f *fakeSource) Current() view.Model { return f.model }
func (f *fakeSource) Uptime() string      { return f.uptime }

type fakeCommander struct{ starts, stops int }

func (f *fakeCommander) RequestStart(context.Context) { f.starts++ }
func (f *fakeCommander) RequestStop(context.Context)  { f.stops++ }

func newTestServer(model view.Model, uptime string) (*Server, *fakeCommander, *actlog.Log) {
	feed := actlog.New(nil)
	cmd := &fakeCommander{}
	s := NewServer(&fakeSource{model: model, uptime: uptime}, feed, cmd, 0)
	return s, cmd, feed
}

func signalModel() view.Model {
	m := view.NewModel([]string{"EUR_USD", "GBP_USD", "USD_JPY"})

	eur := m.Instruments["EUR_USD"]
	eur.Price = 1.0931
	eur.HasPrice = true
	eur.ConfidencePct = 80
	eur.Recommendation = view.RecommendationClass("STRONG BUY")
	m.Instruments["EUR_USD"] = eur

	jpy := m.Instruments["USD_JPY"]
	jpy.ConfidencePct = 60
	jpy.Recommendation = view.RecommendationClass("STRONG SELL")
	m.Instruments["USD_JPY"] = jpy

	m.Connected = true
	m.BotRunning = true
	m.SignalsSeenToday = 2
	return m
}

func TestCollectDerivedFields(t *testing.T) {
	t.Parallel()

	s, _, feed := newTestServer(signalModel(), "00:10:00")
	feed.Append("hello")

	state := s.Collect()

	assert.True(t, state.Connected)
	assert.Equal(t, "Connected", state.ConnectionLabel)
	assert.Equal(t, "OPEN - bot running", state.MarketStatus)
	assert.Equal(t, "00:10:00", state.Uptime)
	assert.Equal(t, 2, state.SignalsSeenToday)
	// Mean confidence over the two instruments with an active signal.
	assert.Equal(t, 70, state.SuccessRatePct)
	require.Len(t, state.Logs, 1)

	// Instruments are sorted for stable rendering.
	require.Len(t, state.Instruments, 3)
	assert.Equal(t, "EUR_USD", state.Instruments[0].Name)
	assert.Equal(t, "GBP_USD", state.Instruments[1].Name)
	assert.Equal(t, "USD_JPY", state.Instruments[2].Name)
}

func TestCollectStandbyDefaults(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer(view.NewModel([]string{"EUR_USD"}), "00:00:00")
	state := s.Collect()

	assert.False(t, state.Connected)
	assert.Equal(t, "Disconnected", state.ConnectionLabel)
	assert.Equal(t, "STANDBY", state.MarketStatus)
	assert.Equal(t, 0, state.SuccessRatePct, "no active signals means no estimate")
}

func TestCollectIdempotent(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer(signalModel(), "00:10:00")

	a, errA := json.Marshal(stripTimestamp(s.Collect()))
	b, errB := json.Marshal(stripTimestamp(s.Collect()))
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, string(a), string(b), "same model must render the same frame")
}

func stripTimestamp(s State) State {
	s.Timestamp = time.Time{}
	return s
}

func TestStateAPIHandler(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer(signalModel(), "01:01:01")

	rec := httptest.NewRecorder()
	s.handleStateAPI(rec, httptest.NewRequest("GET", "/api/state", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var state State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "01:01:01", state.Uptime)
	assert.True(t, state.BotRunning)
}

func TestCommandHandlers(t *testing.T) {
	t.Parallel()

	s, cmd, _ := newTestServer(view.NewModel(nil), "00:00:00")

	rec := httptest.NewRecorder()
	s.handleStart(rec, httptest.NewRequest("POST", "/api/start", nil))
	assert.Equal(t, 202, rec.Code)
	assert.Equal(t, 1, cmd.starts)

	rec = httptest.NewRecorder()
	s.handleStop(rec, httptest.NewRequest("POST", "/api/stop", nil))
	assert.Equal(t, 202, rec.Code)
	assert.Equal(t, 1, cmd.stops)
}

func TestPageHandlerServesHTML(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer(view.NewModel(nil), "00:00:00")

	rec := httptest.NewRecorder()
	s.handlePage(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "text/html", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "instrument-grid")
	assert.Contains(t, rec.Body.String(), "log-panel")
}
