package ai

import "github.com/stefjnl/secret-hitler-online-game/internal/models"

// Suspicion weights. Sitting in a fascist-enacting government weighs more
// than merely voting one in; liberal outcomes pull the score down by the
// same amounts.
const (
	suspicionBase    = 0.5
	weightLed        = 0.10
	weightSupported  = 0.06
	confirmedFascist = 0.95
	confirmedLiberal = 0.05
)

// SuspicionOf scores a participant in [0,1] from this memory. Higher is
// more fascist-looking. Every liberal-confirming observation strictly
// lowers the score and every fascist-confirming one raises it; a personally
// obtained investigation result overrides the behavioral estimate.
func (m *Memory) SuspicionOf(playerID string) float64 {
	if party, ok := m.investigated[playerID]; ok {
		if party == models.PartyFascist {
			return confirmedFascist
		}
		return confirmedLiberal
	}

	s := suspicionBase
	s += weightLed * float64(m.ledFascist[playerID])
	s += weightSupported * float64(m.supportedFascist[playerID])
	s -= weightLed * float64(m.ledLiberal[playerID])
	s -= weightSupported * float64(m.supportedLiberal[playerID])

	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}
	return s
}

// MostSuspicious picks the highest-scoring candidate. Ties resolve to the
// earliest candidate in the given order, so identical memories always make
// identical picks.
func (m *Memory) MostSuspicious(candidates []string) string {
	return m.pick(candidates, func(a, b float64) bool { return a > b })
}

// LeastSuspicious picks the lowest-scoring candidate, same tie rule.
func (m *Memory) LeastSuspicious(candidates []string) string {
	return m.pick(candidates, func(a, b float64) bool { return a < b })
}

func (m *Memory) pick(candidates []string, better func(a, b float64) bool) string {
	if len(candidates) == 0 {
		return ""
	}
	best := candidates[0]
	bestScore := m.SuspicionOf(best)
	for _, id := range candidates[1:] {
		if score := m.SuspicionOf(id); better(score, bestScore) {
			best, bestScore = id, score
		}
	}
	return best
}
