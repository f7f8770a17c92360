package view

import "strings"

// Placeholder texts for slots with no usable backend data yet.
const (
	riskAnalyzingText = "ANALYZING"
	recWaitingText    = "Analyzing, wait for signal"
	recCollectingText = "Collecting data..."
	recPrefixText     = "AI recommends:"
)

// RiskClass maps a backend risk level to its label/class pair. Unknown
// or absent levels degrade to the neutral ANALYZING pair with no class.
func RiskClass(level string) RiskDisplay {
	switch level {
	case RiskLow:
		return RiskDisplay{Text: "LOW RISK", Class: "low"}
	case RiskMedium:
		return RiskDisplay{Text: "MEDIUM RISK", Class: "medium"}
	case RiskHigh:
		return RiskDisplay{Text: "HIGH RISK", Class: "high"}
	case RiskVeryHigh:
		return RiskDisplay{Text: "VERY HIGH RISK", Class: "very-high"}
	default:
		return RiskDisplay{Text: riskAnalyzingText}
	}
}

// RecommendationClass classifies free-text backend recommendations by
// prioritized substring match: STRONG BUY, then STRONG SELL, then
// DO NOT TRADE/AVOID. First match wins. Unmatched non-empty text means
// the bot is still analyzing; empty text means no data at all.
func RecommendationClass(text string) RecDisplay {
	if text == "" {
		return RecDisplay{Text: recCollectingText}
	}
	switch {
	case strings.Contains(text, "STRONG BUY"):
		return RecDisplay{Text: recPrefixText, Action: "STRONG BUY", Class: "buy"}
	case strings.Contains(text, "STRONG SELL"):
		return RecDisplay{Text: recPrefixText, Action: "STRONG SELL", Class: "sell"}
	case strings.Contains(text, "DO NOT TRADE"), strings.Contains(text, "AVOID"):
		return RecDisplay{Text: recPrefixText, Action: "DO NOT TRADE", Class: "avoid"}
	default:
		return RecDisplay{Text: recWaitingText}
	}
}

// ParseConfidence extracts the leading integer from a percentage-like
// string ("82%" -> 82). Anything unparsable yields 0, never an error.
// Confidence is a percentage, so values past 100 clamp to 100; this also
// keeps arbitrarily long digit runs from overflowing.
func ParseConfidence(s string) int {
	n := 0
	seen := false
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		seen = true
		n = n*10 + int(r-'0')
		if n > 100 {
			return 100
		}
	}
	if !seen {
		return 0
	}
	return n
}
