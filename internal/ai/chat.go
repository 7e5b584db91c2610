package ai

import (
	"math/rand"

	"github.com/stefjnl/secret-hitler-online-game/internal/engine"
)

// chatChance is the per-agent probability of commenting on a notable event.
const chatChance = 0.15

var chatLines = map[Personality]map[engine.EventType][]string{
	PersonalityCautious: {
		engine.EventElectionResult: {
			"I hope we can trust this government.",
			"Let's watch what they enact very closely.",
			"I wasn't sure about that vote, honestly.",
		},
		engine.EventPolicyEnacted: {
			"Interesting choice of policy...",
			"Remember who was in that government.",
			"That tells us something, doesn't it?",
		},
		engine.EventPlayerEliminated: {
			"I really hope that was the right call.",
			"That's a heavy decision to make.",
		},
	},
	PersonalityBold: {
		engine.EventElectionResult: {
			"Great, let's get things moving!",
			"Finally a government. Enact something!",
			"I knew that vote would pass.",
		},
		engine.EventPolicyEnacted: {
			"Called it!",
			"Well, well. Look at that board.",
			"Someone here is definitely lying.",
		},
		engine.EventPlayerEliminated: {
			"No regrets. They had it coming.",
			"One less person to worry about.",
		},
	},
}

// ChatAbout returns a personality-keyed comment on the event, or "" when
// the agent stays quiet. Chat is flavor only and never carries hidden
// information.
func (a *Agent) ChatAbout(ev engine.Event, rng *rand.Rand) string {
	lines := chatLines[a.Personality][ev.Type]
	if len(lines) == 0 || rng.Float64() >= chatChance {
		return ""
	}
	return lines[rng.Intn(len(lines))]
}
