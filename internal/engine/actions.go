package engine

import "github.com/stefjnl/secret-hitler-online-game/internal/models"

// Action names as exposed through available-actions queries and accepted by
// the boundary layer. Automated players submit the same names through the
// same entry points as humans.
const (
	ActionStartGame       = "start_game"
	ActionAcknowledgeRole = "acknowledge_role"
	ActionNominate        = "nominate_chancellor"
	ActionVote            = "submit_vote"
	ActionDiscardPolicy   = "discard_policy"
	ActionEnactPolicy     = "enact_policy"
	ActionInvestigate     = "investigate_loyalty"
	ActionSpecialElection = "call_special_election"
	ActionPolicyPeek      = "policy_peek"
	ActionExecutePlayer   = "execute_player"
)

// Actions lists what a participant may do right now, with the kind-specific
// options for each action.
type Actions struct {
	Actions []string `json:"actions"`

	// EligibleChancellorIDs accompanies nominate_chancellor.
	EligibleChancellorIDs []string `json:"eligible_chancellor_ids,omitempty"`

	// Policies is the hand accompanying discard_policy / enact_policy.
	Policies []models.PolicyType `json:"policies,omitempty"`

	// PendingPower and EligibleTargetIDs accompany the power actions.
	PendingPower      models.PresidentialPower `json:"pending_power,omitempty"`
	EligibleTargetIDs []string                 `json:"eligible_target_ids,omitempty"`
}

// Empty reports whether no action is available.
func (a Actions) Empty() bool {
	return len(a.Actions) == 0
}

// Has reports whether a specific action is available.
func (a Actions) Has(name string) bool {
	for _, n := range a.Actions {
		if n == name {
			return true
		}
	}
	return false
}

// AvailableActions computes what the given participant may do in the current
// phase. Dead or unknown participants can do nothing.
func (e *Engine) AvailableActions(playerID string) Actions {
	var out Actions
	p := e.game.Player(playerID)
	if p == nil || !p.IsAlive {
		return out
	}

	switch e.game.State.Phase {
	case models.PhaseLobby:
		out.Actions = append(out.Actions, ActionStartGame)

	case models.PhaseRoleReveal:
		if !e.acked[playerID] {
			out.Actions = append(out.Actions, ActionAcknowledgeRole)
		}

	case models.PhaseElection:
		nominated := e.game.State.ChancellorCandidateID != ""
		if !nominated && playerID == e.game.State.PresidentialCandidateID {
			out.Actions = append(out.Actions, ActionNominate)
			for _, c := range e.game.EligibleChancellors(playerID) {
				out.EligibleChancellorIDs = append(out.EligibleChancellorIDs, c.ID)
			}
		}
		if nominated && e.mayVote(playerID) {
			out.Actions = append(out.Actions, ActionVote)
		}

	case models.PhaseLegislativeSession:
		if playerID == e.game.State.PresidentialCandidateID && len(e.hand) == 3 {
			out.Actions = append(out.Actions, ActionDiscardPolicy)
			out.Policies = append(out.Policies, e.hand...)
		}
		if playerID == e.game.State.ChancellorCandidateID && len(e.hand) == 2 {
			out.Actions = append(out.Actions, ActionEnactPolicy)
			out.Policies = append(out.Policies, e.hand...)
		}

	case models.PhasePresidentialPower:
		if playerID != e.game.State.PresidentialCandidateID {
			break
		}
		out.PendingPower = e.game.State.PendingPower
		switch e.game.State.PendingPower {
		case models.PowerInvestigate:
			out.Actions = append(out.Actions, ActionInvestigate)
		case models.PowerSpecialElection:
			out.Actions = append(out.Actions, ActionSpecialElection)
		case models.PowerPolicyPeek:
			out.Actions = append(out.Actions, ActionPolicyPeek)
		case models.PowerExecution:
			out.Actions = append(out.Actions, ActionExecutePlayer)
		}
		if e.game.State.PendingPower != models.PowerPolicyPeek {
			for _, t := range e.game.AlivePlayers() {
				if t.ID == playerID {
					continue
				}
				out.EligibleTargetIDs = append(out.EligibleTargetIDs, t.ID)
			}
		}
	}
	return out
}

// mayVote reports whether the participant still owes a ballot: alive, not
// one of the two candidates, and not already counted.
func (e *Engine) mayVote(playerID string) bool {
	if playerID == e.game.State.PresidentialCandidateID || playerID == e.game.State.ChancellorCandidateID {
		return false
	}
	_, voted := e.game.State.Votes[playerID]
	return !voted
}
