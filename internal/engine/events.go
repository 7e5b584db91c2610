package engine

import (
	"time"

	"github.com/stefjnl/secret-hitler-online-game/internal/models"
)

// EventType identifies an entry in the session event log. The log is
// relayed verbatim to subscribers, so these values and the Event shape are
// wire format and must stay stable.
type EventType string

const (
	EventGameStarted         EventType = "game_started"
	EventPhaseChanged        EventType = "phase_changed"
	EventChancellorNominated EventType = "chancellor_nominated"
	EventVoteSubmitted       EventType = "vote_submitted"
	EventElectionResult      EventType = "election_result"
	EventPolicyDrawn         EventType = "policy_drawn"
	EventPolicyDiscarded     EventType = "policy_discarded"
	EventPolicyEnacted       EventType = "policy_enacted"
	EventPowerTriggered      EventType = "presidential_power_triggered"
	EventPowerExecuted       EventType = "presidential_power_executed"
	EventPlayerEliminated    EventType = "player_eliminated"
	EventGameOver            EventType = "game_over"
)

// Event is one entry of the append-only session log. Every entry carries the
// full round-state snapshot taken after the mutation it describes.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id"`
	Data      map[string]any `json:"data,omitempty"`
	State     StateSnapshot  `json:"state"`
}

// GovernmentSnapshot is one formed government in a snapshot.
type GovernmentSnapshot struct {
	PresidentID  string `json:"president_id"`
	ChancellorID string `json:"chancellor_id"`
}

// StateSnapshot is the externally visible round state. Secret roles, hands
// and deck order are deliberately absent; they travel only in action results
// addressed to the entitled actor.
type StateSnapshot struct {
	Phase                   models.GamePhase         `json:"phase"`
	ElectionTracker         int                      `json:"election_tracker"`
	LiberalPolicies         int                      `json:"liberal_policies"`
	FascistPolicies         int                      `json:"fascist_policies"`
	PresidentialCandidateID string                   `json:"presidential_candidate_id,omitempty"`
	ChancellorCandidateID   string                   `json:"chancellor_candidate_id,omitempty"`
	LastPresidentID         string                   `json:"last_president_id,omitempty"`
	LastChancellorID        string                   `json:"last_chancellor_id,omitempty"`
	VotesCast               int                      `json:"votes_cast"`
	VotesNeeded             int                      `json:"votes_needed"`
	GovernmentHistory       []GovernmentSnapshot     `json:"government_history"`
	PendingPower            models.PresidentialPower `json:"pending_power"`
	DeckSize                int                      `json:"deck_size"`
	DiscardSize             int                      `json:"discard_size"`
	AlivePlayerIDs          []string                 `json:"alive_player_ids"`
}

// Snapshot returns the externally visible round state as of now.
func (e *Engine) Snapshot() StateSnapshot {
	return e.snapshot()
}

func (e *Engine) snapshot() StateSnapshot {
	s := e.game.State
	snap := StateSnapshot{
		Phase:                   s.Phase,
		ElectionTracker:         s.ElectionTracker,
		LiberalPolicies:         s.LiberalPolicies,
		FascistPolicies:         s.FascistPolicies,
		PresidentialCandidateID: s.PresidentialCandidateID,
		ChancellorCandidateID:   s.ChancellorCandidateID,
		LastPresidentID:         s.LastPresidentID,
		LastChancellorID:        s.LastChancellorID,
		VotesCast:               len(s.Votes),
		VotesNeeded:             e.votesNeeded(),
		PendingPower:            s.PendingPower,
		DeckSize:                len(e.game.Deck),
		DiscardSize:             len(e.game.Discard),
	}
	for _, gov := range s.GovernmentHistory {
		snap.GovernmentHistory = append(snap.GovernmentHistory, GovernmentSnapshot{
			PresidentID:  gov.PresidentID,
			ChancellorID: gov.ChancellorID,
		})
	}
	for _, p := range e.game.AlivePlayers() {
		snap.AlivePlayerIDs = append(snap.AlivePlayerIDs, p.ID)
	}
	return snap
}

func (e *Engine) emit(kind EventType, data map[string]any) {
	e.events = append(e.events, Event{
		Type:      kind,
		Timestamp: e.now(),
		SessionID: e.game.ID,
		Data:      data,
		State:     e.snapshot(),
	})
}

// Events returns the full event log.
func (e *Engine) Events() []Event {
	return e.events
}

// EventsSince returns log entries appended at or after index cursor.
func (e *Engine) EventsSince(cursor int) []Event {
	if cursor < 0 || cursor >= len(e.events) {
		return nil
	}
	return e.events[cursor:]
}
