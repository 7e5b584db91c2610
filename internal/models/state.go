package models

// Government records a formed (president, chancellor) pair. The fascist
// policy count at formation is kept because the hitler-as-chancellor win
// condition is judged against the count at that moment, not the current one.
type Government struct {
	PresidentID                string
	ChancellorID               string
	FascistPoliciesAtFormation int
}

// RoundState is the mutable election/legislative state of a session.
type RoundState struct {
	Phase           GamePhase
	ElectionTracker int
	LiberalPolicies int
	FascistPolicies int

	Votes             map[string]bool // voter ID -> vote, cleared after every tally
	GovernmentHistory []Government    // every government ever formed, in order

	PresidentialCandidateID string
	ChancellorCandidateID   string
	LastPresidentID         string
	LastChancellorID        string

	PendingPower  PresidentialPower // PowerNone when nothing is armed
	PowerTargetID string

	InvestigatedPlayers map[string]Party // target ID -> revealed party
}

// NewRoundState returns the initial lobby-phase state.
func NewRoundState() RoundState {
	return RoundState{
		Phase:               PhaseLobby,
		PendingPower:        PowerNone,
		Votes:               make(map[string]bool),
		InvestigatedPlayers: make(map[string]Party),
	}
}

// LastGovernment returns the most recently formed government.
func (s *RoundState) LastGovernment() (Government, bool) {
	if len(s.GovernmentHistory) == 0 {
		return Government{}, false
	}
	return s.GovernmentHistory[len(s.GovernmentHistory)-1], true
}
