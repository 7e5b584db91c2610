package ai

import (
	"fmt"
	"math/rand"

	"github.com/stefjnl/secret-hitler-online-game/internal/engine"
	"github.com/stefjnl/secret-hitler-online-game/internal/models"
)

// Personality flavors an agent: how readily it backs a government and which
// chat lines it reaches for.
type Personality string

const (
	PersonalityCautious Personality = "cautious"
	PersonalityBold     Personality = "bold"
)

// Difficulty maps to the error rate: the probability of a legal but random
// choice instead of the heuristic one.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyExpert       Difficulty = "expert"
)

// ErrorRate returns the misplay probability for the difficulty.
func (d Difficulty) ErrorRate() float64 {
	switch d {
	case DifficultyBeginner:
		return 0.20
	case DifficultyExpert:
		return 0
	default:
		return 0.05
	}
}

// voteThreshold is the combined candidate suspicion above which an agent
// votes no. Bold agents tolerate shadier governments.
func (p Personality) voteThreshold() float64 {
	if p == PersonalityBold {
		return 1.30
	}
	return 1.05
}

// Tunables adjusts strategy behavior across all agents of a session.
type Tunables struct {
	// AvoidEarlyHitler keeps fascists from nominating hitler as chancellor
	// while fewer than three fascist policies are enacted.
	AvoidEarlyHitler bool

	// ErrorRate overrides the difficulty-derived rate when >= 0.
	ErrorRate float64
}

// DefaultTunables matches the shipped configuration.
func DefaultTunables() Tunables {
	return Tunables{AvoidEarlyHitler: true, ErrorRate: -1}
}

// Decision is one resolved choice, ready to submit through the regular
// action entry points.
type Decision struct {
	Action   string
	TargetID string
	Policy   models.PolicyType
	Vote     bool
}

// Agent is one automated participant: identity, skill, disposition and
// private memory. Decide methods are pure reads of the snapshot and memory;
// submission and pacing belong to the Director.
type Agent struct {
	ID          string
	Name        string
	Role        models.Role
	Personality Personality
	Difficulty  Difficulty

	Memory   *Memory
	Tunables Tunables

	rng *rand.Rand
}

// NewAgent builds an agent for a seat. fellowFascists seeds the memory for
// fascist-team roles and must be empty for liberals.
func NewAgent(id, name string, role models.Role, personality Personality, difficulty Difficulty, tunables Tunables, fellowFascists []string, rng *rand.Rand) *Agent {
	return &Agent{
		ID:          id,
		Name:        name,
		Role:        role,
		Personality: personality,
		Difficulty:  difficulty,
		Memory:      NewMemory(id, fellowFascists),
		Tunables:    tunables,
		rng:         rng,
	}
}

func (a *Agent) errorRate() float64 {
	if a.Tunables.ErrorRate >= 0 {
		return a.Tunables.ErrorRate
	}
	return a.Difficulty.ErrorRate()
}

// misplays rolls the error rate once.
func (a *Agent) misplays() bool {
	rate := a.errorRate()
	return rate > 0 && a.rng.Float64() < rate
}

// Decide resolves one of the currently available actions into a concrete
// decision. The available set is never empty when Decide is called; if the
// engine offers several actions the first one listed is resolved.
func (a *Agent) Decide(game *models.Game, available engine.Actions) (Decision, error) {
	if available.Empty() {
		return Decision{}, fmt.Errorf("agent %s: no available action", a.ID)
	}

	switch action := available.Actions[0]; action {
	case engine.ActionStartGame, engine.ActionAcknowledgeRole, engine.ActionPolicyPeek:
		return Decision{Action: action}, nil

	case engine.ActionNominate:
		return Decision{
			Action:   action,
			TargetID: a.decideNomination(game, available.EligibleChancellorIDs),
		}, nil

	case engine.ActionVote:
		return Decision{Action: action, Vote: a.decideVote(game)}, nil

	case engine.ActionDiscardPolicy:
		return Decision{Action: action, Policy: a.decideDiscard(available.Policies)}, nil

	case engine.ActionEnactPolicy:
		return Decision{Action: action, Policy: a.decideEnact(game, available.Policies)}, nil

	case engine.ActionInvestigate:
		return Decision{
			Action:   action,
			TargetID: a.decideInvestigation(available.EligibleTargetIDs),
		}, nil

	case engine.ActionSpecialElection:
		return Decision{
			Action:   action,
			TargetID: a.decideSpecialElection(game, available.EligibleTargetIDs),
		}, nil

	case engine.ActionExecutePlayer:
		return Decision{
			Action:   action,
			TargetID: a.decideExecution(available.EligibleTargetIDs),
		}, nil

	default:
		return Decision{}, fmt.Errorf("agent %s: unknown action %q", a.ID, action)
	}
}

// decideNomination picks a chancellor candidate. Liberals (and hitler
// posing as one) take the least suspicious option; fascists prefer a known
// teammate, steering clear of hitler while an early chancellorship would
// reveal the team.
func (a *Agent) decideNomination(game *models.Game, eligible []string) string {
	if a.misplays() {
		return eligible[a.rng.Intn(len(eligible))]
	}
	if a.Role == models.RoleFascist {
		if mate := a.teammateAmong(game, eligible); mate != "" {
			return mate
		}
		return a.Memory.MostSuspicious(a.withoutEarlyHitler(game, eligible))
	}
	return a.Memory.LeastSuspicious(eligible)
}

// withoutEarlyHitler filters hitler out of a fascist's chancellor picks
// while an early chancellorship would reveal the team.
func (a *Agent) withoutEarlyHitler(game *models.Game, candidates []string) []string {
	if !a.Tunables.AvoidEarlyHitler || game.State.FascistPolicies >= 3 {
		return candidates
	}
	out := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if a.Memory.KnowsFascist(id) {
			if p := game.Player(id); p != nil && p.IsHitler() {
				continue
			}
		}
		out = append(out, id)
	}
	if len(out) == 0 {
		return candidates
	}
	return out
}

func (a *Agent) teammateAmong(game *models.Game, candidates []string) string {
	for _, id := range candidates {
		if !a.Memory.KnowsFascist(id) {
			continue
		}
		p := game.Player(id)
		if p != nil && p.IsHitler() && a.Tunables.AvoidEarlyHitler && game.State.FascistPolicies < 3 {
			continue
		}
		return id
	}
	return ""
}

// decideVote backs the proposed government unless the combined suspicion of
// both candidates crosses the personality threshold. Fascists back any
// government containing a teammate.
func (a *Agent) decideVote(game *models.Game) bool {
	if a.misplays() {
		return a.rng.Intn(2) == 0
	}
	presidentID := game.State.PresidentialCandidateID
	chancellorID := game.State.ChancellorCandidateID

	if a.Role == models.RoleFascist {
		if a.Memory.KnowsFascist(presidentID) || a.Memory.KnowsFascist(chancellorID) {
			return true
		}
	}
	combined := a.Memory.SuspicionOf(presidentID) + a.Memory.SuspicionOf(chancellorID)
	return combined <= a.Personality.voteThreshold()
}

// decideDiscard is the president's choice. Liberal-posing roles shed a
// fascist card whenever they hold one; committed fascists shed a liberal.
func (a *Agent) decideDiscard(hand []models.PolicyType) models.PolicyType {
	if a.misplays() {
		return hand[a.rng.Intn(len(hand))]
	}
	unwanted := models.PolicyFascist
	if a.Role == models.RoleFascist {
		unwanted = models.PolicyLiberal
	}
	for _, card := range hand {
		if card == unwanted {
			return card
		}
	}
	return hand[0]
}

// decideEnact is the chancellor's choice. Hitler keeps posing as a liberal
// until the fascist track makes the chancellorship itself the win, at which
// point the pose has no more value.
func (a *Agent) decideEnact(game *models.Game, hand []models.PolicyType) models.PolicyType {
	if a.misplays() {
		return hand[a.rng.Intn(len(hand))]
	}
	wanted := models.PolicyLiberal
	if a.Role == models.RoleFascist || (a.Role == models.RoleHitler && game.State.FascistPolicies >= 3) {
		wanted = models.PolicyFascist
	}
	for _, card := range hand {
		if card == wanted {
			return card
		}
	}
	return hand[0]
}

// decideInvestigation picks who to expose. Repeat investigations are legal
// but teach nothing, so targets this agent already confirmed only come up
// when nobody else is left. Liberals go after the most suspicious unknown;
// fascists burn the power on whoever already looks clean.
func (a *Agent) decideInvestigation(targets []string) string {
	if a.misplays() {
		return targets[a.rng.Intn(len(targets))]
	}
	fresh := make([]string, 0, len(targets))
	for _, id := range targets {
		if !a.Memory.HasConfirmed(id) {
			fresh = append(fresh, id)
		}
	}
	if len(fresh) > 0 {
		targets = fresh
	}
	if a.Role == models.RoleFascist {
		return a.Memory.LeastSuspicious(targets)
	}
	return a.Memory.MostSuspicious(targets)
}

// decideSpecialElection hands the presidency to the most trusted candidate,
// or to a teammate when the agent has one available.
func (a *Agent) decideSpecialElection(game *models.Game, targets []string) string {
	if a.misplays() {
		return targets[a.rng.Intn(len(targets))]
	}
	if a.Role == models.RoleFascist {
		if mate := a.teammateAmong(game, targets); mate != "" {
			return mate
		}
	}
	return a.Memory.LeastSuspicious(targets)
}

// decideExecution shoots the most suspicious target; fascists invert the
// ranking to thin out confirmed liberals while sparing the team.
func (a *Agent) decideExecution(targets []string) string {
	if a.misplays() {
		return targets[a.rng.Intn(len(targets))]
	}
	if a.Role == models.RoleFascist {
		safe := make([]string, 0, len(targets))
		for _, id := range targets {
			if !a.Memory.KnowsFascist(id) {
				safe = append(safe, id)
			}
		}
		if len(safe) > 0 {
			return a.Memory.LeastSuspicious(safe)
		}
	}
	return a.Memory.MostSuspicious(targets)
}
