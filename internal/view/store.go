package view

import (
	"fmt"
	"sync"
	"time"
)

// Store owns the live Model. All writes come from the event loop;
// the mutex only exists so the dashboard server can read a consistent
// copy while an update is in flight.
type Store struct {
	mu  sync.RWMutex
	m   Model
	now func() time.Time
}

// NewStore creates a store seeded with the all-unknown model for the
// configured instruments. A nil clock defaults to time.Now.
func NewStore(instruments []string, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{m: NewModel(instruments), now: now}
}

// Current returns a deep copy of the model.
func (s *Store) Current() Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.clone()
}

// ApplySnapshot reconciles a pushed snapshot into the model.
func (s *Store) ApplySnapshot(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = Reconcile(s.m, snap)
}

// ApplyConnectionChange records transport connectivity.
func (s *Store) ApplyConnectionChange(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.Connected = connected
}

// ApplyRunStateChange records a confirmed run transition. The start
// timestamp is set only here, on the transition to running, and cleared
// only on the transition to stopped.
func (s *Store) ApplyRunStateChange(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.BotRunning = running
	if running {
		s.m.StartTime = s.now()
	} else {
		s.m.StartTime = time.Time{}
	}
}

// Connected reports the last known transport state.
func (s *Store) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.Connected
}

// Uptime renders the running clock for the current model, or the zero
// clock when the bot is not running.
func (s *Store) Uptime() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.m.BotRunning || s.m.StartTime.IsZero() {
		return "00:00:00"
	}
	return FormatUptime(s.now().Sub(s.m.StartTime))
}

// FormatUptime formats an elapsed duration as zero-padded HH:MM:SS.
// Hours are unbounded and simply keep growing past 99.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
