// Package actlog keeps the bounded, human-readable activity feed shown
// on the dashboard. It is independent of the snapshot pipeline: any
// component may append lifecycle events to it.
package actlog

import (
	"sync"
	"time"
)

// MaxEntries bounds the feed; the oldest entries are evicted first.
const MaxEntries = 20

// Entry is one timestamped feed line.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// Log is a bounded, newest-first activity feed.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

// New creates an empty log. A nil clock defaults to time.Now.
func New(now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	return &Log{now: now}
}

// Append stamps the message with the current local time and inserts it
// at the front, evicting from the tail past MaxEntries. Existing entries
// are never modified.
func (l *Log) Append(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := Entry{Timestamp: l.now().Format("15:04:05"), Message: message}
	l.entries = append([]Entry{e}, l.entries...)
	if len(l.entries) > MaxEntries {
		l.entries = l.entries[:MaxEntries]
	}
}

// Entries returns a newest-first copy of the feed.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the current entry count.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
