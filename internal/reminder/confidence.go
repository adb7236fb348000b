package reminder

const (
	baseConfidence    = 0.5
	strongIntentBonus = 0.2
	temporalBonus     = 0.2
	recurrenceBonus   = 0.1
	maxConfidence     = 1.0
)

// Score combines the fired rule families into a confidence in [0, 1].
func Score(s Signals) float64 {
	score := baseConfidence
	if s.StrongIntent {
		score += strongIntentBonus
	}
	if s.Temporal {
		score += temporalBonus
	}
	if s.Recurrence {
		score += recurrenceBonus
	}
	if score > maxConfidence {
		score = maxConfidence
	}
	return score
}
