package view

// Reconcile folds one server snapshot into the previous model and
// returns the updated model. It is pure: no clocks, no side effects,
// and the same (prev, snap) pair always yields the same result.
//
// Absence semantics: a nil field in the snapshot means "no update this
// tick", so the previous value is carried over. Instrument data is only
// re-derived for instruments the snapshot actually lists.
func Reconcile(prev Model, snap Snapshot) Model {
	next := prev.clone()

	if snap.BotRunning != nil {
		next.BotRunning = *snap.BotRunning
	}

	for inst, state := range snap.Instruments {
		iv := next.Instruments[inst]

		if state.Price != nil {
			iv.Price = *state.Price
			iv.HasPrice = true
		}

		if state.ActiveTrade != nil {
			iv.Risk = RiskClass(state.ActiveTrade.RiskLevel)
			iv.ConfidencePct = ParseConfidence(state.ActiveTrade.Confidence)
			iv.Recommendation = RecommendationClass(state.ActiveTrade.Recommendation)
		} else {
			iv.Risk = RiskClass("")
			iv.ConfidencePct = 0
			iv.Recommendation = RecommendationClass("")
		}

		// Count a signal only when an instrument flips to a new
		// actionable recommendation; the counter never decreases.
		if act := iv.Recommendation.Action; act != "" && act != iv.LastAction {
			next.SignalsSeenToday++
			iv.LastAction = act
		} else if act == "" {
			iv.LastAction = ""
		}

		next.Instruments[inst] = iv
	}

	return next
}
