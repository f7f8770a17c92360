// Package view holds the client-side representation of the remote bot's
// status: the wire snapshot DTOs, the derived view model, and the pure
// reconciliation step between the two.
package view

import "time"

// Risk levels reported by the backend for an active trade.
const (
	RiskLow      = "LOW"
	RiskMedium   = "MEDIUM"
	RiskHigh     = "HIGH"
	RiskVeryHigh = "VERY_HIGH"
)

// Snapshot is one server-pushed status payload. Every field is optional:
// a nil/absent field means "no update", never "zero".
type Snapshot struct {
	BotRunning  *bool                      `json:"bot_running,omitempty"`
	Instruments map[string]InstrumentState `json:"instruments,omitempty"`
}

// InstrumentState is the backend's view of a single instrument.
type InstrumentState struct {
	Price       *float64     `json:"price,omitempty"`
	ActiveTrade *ActiveTrade `json:"active_trade,omitempty"`
}

// ActiveTrade carries the backend's current assessment for an instrument.
// Recommendation is free text and matched by substring, not a closed enum.
type ActiveTrade struct {
	RiskLevel      string `json:"risk_level,omitempty"`
	Confidence     string `json:"confidence,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

// RiskDisplay is the label/class pair driving the risk slot.
type RiskDisplay struct {
	Text  string `json:"text"`
	Class string `json:"class"`
}

// RecDisplay is the resolved recommendation slot. Action is empty unless
// the backend text matched one of the known signals.
type RecDisplay struct {
	Text   string `json:"text"`
	Action string `json:"action"`
	Class  string `json:"class"`
}

// InstrumentView is the derived display state for one instrument.
type InstrumentView struct {
	Price          float64     `json:"price"`
	HasPrice       bool        `json:"has_price"`
	Risk           RiskDisplay `json:"risk"`
	ConfidencePct  int         `json:"confidence_pct"`
	Recommendation RecDisplay  `json:"recommendation"`

	// LastAction remembers the most recent non-empty recommendation
	// action so the signal counter only fires on transitions.
	LastAction string `json:"-"`
}

// Model is the client-owned view model. It is mutated only through the
// Store or by Reconcile; it holds no reference back into any Snapshot.
type Model struct {
	Connected        bool                      `json:"connected"`
	BotRunning       bool                      `json:"bot_running"`
	StartTime        time.Time                 `json:"-"`
	SignalsSeenToday int                       `json:"signals_seen_today"`
	Instruments      map[string]InstrumentView `json:"instruments"`
}

// NewModel returns the all-unknown session-start model with a neutral
// display slot for each configured instrument.
func NewModel(instruments []string) Model {
	m := Model{Instruments: make(map[string]InstrumentView, len(instruments))}
	for _, inst := range instruments {
		m.Instruments[inst] = InstrumentView{
			Risk:           RiskClass(""),
			Recommendation: RecommendationClass(""),
		}
	}
	return m
}

// clone deep-copies the model so reconciliation never aliases the
// previous instrument map.
func (m Model) clone() Model {
	out := m
	out.Instruments = make(map[string]InstrumentView, len(m.Instruments))
	for k, v := range m.Instruments {
		out.Instruments[k] = v
	}
	return out
}
