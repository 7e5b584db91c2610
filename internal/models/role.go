package models

// Role is a player's secret role.
type Role string

const (
	RoleLiberal Role = "liberal"
	RoleFascist Role = "fascist"
	RoleHitler  Role = "hitler"
)

// Party is a team affiliation, always derived from the role and never stored.
type Party string

const (
	PartyLiberal Party = "liberal"
	PartyFascist Party = "fascist"
)

// PartyOf derives the party for a role. Hitler sits with the fascists.
func PartyOf(role Role) Party {
	if role == RoleLiberal {
		return PartyLiberal
	}
	return PartyFascist
}

// PolicyType is the face of a policy card.
type PolicyType string

const (
	PolicyLiberal PolicyType = "liberal"
	PolicyFascist PolicyType = "fascist"
)

// GamePhase is the current phase of a session.
type GamePhase string

const (
	PhaseLobby              GamePhase = "lobby"
	PhaseRoleReveal         GamePhase = "role_reveal"
	PhaseElection           GamePhase = "election"
	PhaseLegislativeSession GamePhase = "legislative_session"
	PhasePresidentialPower  GamePhase = "presidential_power"
	PhaseGameOver           GamePhase = "game_over"
)

// PresidentialPower is a special action unlocked by enacted fascist policies.
type PresidentialPower string

const (
	PowerNone            PresidentialPower = "none"
	PowerInvestigate     PresidentialPower = "investigate_loyalty"
	PowerSpecialElection PresidentialPower = "call_special_election"
	PowerPolicyPeek      PresidentialPower = "policy_peek"
	PowerExecution       PresidentialPower = "execution"
)

// roleCounts maps roster size to the role multiset (liberals, fascists; plus
// exactly one hitler).
var roleCounts = map[int]struct{ liberals, fascists int }{
	5:  {3, 1},
	6:  {4, 1},
	7:  {4, 2},
	8:  {5, 2},
	9:  {5, 3},
	10: {6, 3},
}

// PowerFor returns the presidential power unlocked at the given fascist
// policy count. Larger tables shift the powers earlier: with 9 or more
// players alive the first fascist policy already unlocks an investigation.
func PowerFor(fascistPolicies, aliveCount int) PresidentialPower {
	if aliveCount >= 9 {
		switch {
		case fascistPolicies >= 4:
			return PowerExecution
		case fascistPolicies == 3:
			return PowerPolicyPeek
		case fascistPolicies == 2:
			return PowerSpecialElection
		case fascistPolicies == 1:
			return PowerInvestigate
		}
		return PowerNone
	}
	switch {
	case fascistPolicies >= 4:
		return PowerExecution
	case fascistPolicies == 3:
		return PowerSpecialElection
	case fascistPolicies == 2:
		return PowerInvestigate
	}
	return PowerNone
}
