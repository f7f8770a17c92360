// Package ui serves the local dashboard: an HTML page, a JSON state
// endpoint, and a websocket re-broadcast of render states to browsers.
// Rendering is idempotent; identical states produce identical frames and
// the page re-applies them slot by slot with no visual change.
package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"fxdash/internal/actlog"
	"fxdash/internal/view"
)

// Commander is the user-intent half of the command dispatcher.
type Commander interface {
	RequestStart(ctx context.Context)
	RequestStop(ctx context.Context)
}

// StateSource exposes the current model and uptime clock.
type StateSource interface {
	Current() view.Model
	Uptime() string
}

// InstrumentRow is one rendered instrument slot, ordered for display.
type InstrumentRow struct {
	Name string `json:"name"`
	view.InstrumentView
}

// State is the complete render state pushed to browsers.
type State struct {
	Timestamp        time.Time       `json:"timestamp"`
	Connected        bool            `json:"connected"`
	ConnectionLabel  string          `json:"connection_label"`
	BotRunning       bool            `json:"bot_running"`
	MarketStatus     string          `json:"market_status"`
	Uptime           string          `json:"uptime"`
	SignalsSeenToday int             `json:"signals_seen_today"`
	SuccessRatePct   int             `json:"success_rate_pct"`
	Instruments      []InstrumentRow `json:"instruments"`
	Logs             []actlog.Entry  `json:"logs"`
}

// Server is the dashboard HTTP server.
type Server struct {
	source    StateSource
	feed      *actlog.Log
	commander Commander
	server    *http.Server
	upgrader  websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]bool

	broadcast chan State
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewServer creates a dashboard server listening on the given port.
func NewServer(source StateSource, feed *actlog.Log, commander Commander, port int) *Server {
	s := &Server{
		source:    source,
		feed:      feed,
		commander: commander,
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan State, 100),
		stop:      make(chan struct{}),
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handlePage).Methods("GET")
	r.HandleFunc("/api/state", s.handleStateAPI).Methods("GET")
	r.HandleFunc("/api/start", s.handleStart).Methods("POST")
	r.HandleFunc("/api/stop", s.handleStop).Methods("POST")
	r.HandleFunc("/ws", s.handleWebSocket).Methods("GET")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Start begins serving and broadcasting. Non-blocking.
func (s *Server) Start() {
	go s.clientBroadcaster()
	go func() {
		log.Info().Str("address", s.server.Addr).Msg("starting dashboard server")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("dashboard server failed")
		}
	}()
}

// Stop shuts the server down and disconnects all browser clients.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() { close(s.stop) })

	s.clientsMu.Lock()
	for client := range s.clients {
		client.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Push renders the current model and queues it for broadcast. A full
// queue drops the state; the next push supersedes it anyway.
func (s *Server) Push() {
	select {
	case s.broadcast <- s.Collect():
	default:
	}
}

// Collect assembles the render state from the model, the uptime clock,
// and the activity feed.
func (s *Server) Collect() State {
	m := s.source.Current()

	label := "Disconnected"
	if m.Connected {
		label = "Connected"
	}

	status := "STANDBY"
	if m.BotRunning {
		status = "OPEN - bot running"
	}

	names := make([]string, 0, len(m.Instruments))
	for name := range m.Instruments {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]InstrumentRow, 0, len(names))
	confSum, confN := 0, 0
	for _, name := range names {
		iv := m.Instruments[name]
		rows = append(rows, InstrumentRow{Name: name, InstrumentView: iv})
		if iv.Recommendation.Action != "" {
			confSum += iv.ConfidencePct
			confN++
		}
	}

	successRate := 0
	if confN > 0 {
		successRate = confSum / confN
	}

	return State{
		Timestamp:        time.Now(),
		Connected:        m.Connected,
		ConnectionLabel:  label,
		BotRunning:       m.BotRunning,
		MarketStatus:     status,
		Uptime:           s.source.Uptime(),
		SignalsSeenToday: m.SignalsSeenToday,
		SuccessRatePct:   successRate,
		Instruments:      rows,
		Logs:             s.feed.Entries(),
	}
}

func (s *Server) clientBroadcaster() {
	for {
		select {
		case state := <-s.broadcast:
			s.broadcastToClients(state)
		case <-s.stop:
			return
		}
	}
}

func (s *Server) broadcastToClients(state State) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	data, err := json.Marshal(state)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal render state")
		return
	}

	for client := range s.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Debug().Err(err).Msg("dropping stale browser client")
			client.Close()
			delete(s.clients, client)
		}
	}
}

func (s *Server) handleStateAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Collect())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.commander.RequestStart(r.Context())
	s.Push()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.commander.RequestStop(r.Context())
	s.Push()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade browser connection")
		return
	}
	defer conn.Close()

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()

	// Initial frame so the page is populated immediately.
	if data, err := json.Marshal(s.Collect()); err == nil {
		conn.WriteMessage(websocket.TextMessage, data)
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
}
