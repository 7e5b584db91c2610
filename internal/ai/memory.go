// Package ai implements the automated participants: per-agent private
// memory built from the public event feed, suspicion scoring over that
// memory, per-role decision heuristics, and a director that schedules
// human-paced submissions through the same entry points humans use.
package ai

import (
	"github.com/stefjnl/secret-hitler-online-game/internal/engine"
	"github.com/stefjnl/secret-hitler-online-game/internal/models"
)

// Memory is one agent's private record of the public game. It only ever
// holds information the agent is entitled to: the event feed everyone sees,
// plus investigation results this agent personally obtained.
type Memory struct {
	SelfID string

	// ledFascist et al. count governments by outcome: how often a
	// participant sat in a government that enacted each policy type, and how
	// often they voted one in.
	ledFascist       map[string]int
	ledLiberal       map[string]int
	supportedFascist map[string]int
	supportedLiberal map[string]int

	// investigated holds parties this agent has personally confirmed.
	investigated map[string]models.Party

	// knownFascists is seeded at game start for fascist-team agents, who
	// see each other during role reveal.
	knownFascists map[string]bool

	// The election in flight: ballots as they arrive, then the formed
	// government awaiting its enactment.
	pendingVotes  map[string]bool
	lastYesVoters []string
	lastGov       *governmentRecord
}

type governmentRecord struct {
	presidentID  string
	chancellorID string
	yesVoters    []string
}

// NewMemory builds an empty memory for one seat. fellowFascists is non-nil
// only for fascist-team seats.
func NewMemory(selfID string, fellowFascists []string) *Memory {
	m := &Memory{
		SelfID:           selfID,
		ledFascist:       make(map[string]int),
		ledLiberal:       make(map[string]int),
		supportedFascist: make(map[string]int),
		supportedLiberal: make(map[string]int),
		investigated:     make(map[string]models.Party),
		knownFascists:    make(map[string]bool),
		pendingVotes:     make(map[string]bool),
	}
	for _, id := range fellowFascists {
		m.knownFascists[id] = true
	}
	return m
}

// Observe folds one public event into the memory. Events carry no secrets,
// so every agent observes the same feed.
func (m *Memory) Observe(ev engine.Event) {
	switch ev.Type {
	case engine.EventChancellorNominated:
		m.pendingVotes = make(map[string]bool)

	case engine.EventVoteSubmitted:
		voter, _ := ev.Data["player_id"].(string)
		vote, _ := ev.Data["vote"].(bool)
		if voter != "" {
			m.pendingVotes[voter] = vote
		}

	case engine.EventElectionResult:
		ok, _ := ev.Data["successful"].(bool)
		if !ok {
			m.pendingVotes = make(map[string]bool)
			return
		}
		gov := &governmentRecord{}
		gov.presidentID, _ = ev.Data["president_id"].(string)
		gov.chancellorID, _ = ev.Data["chancellor_id"].(string)
		for voter, vote := range m.pendingVotes {
			if vote {
				gov.yesVoters = append(gov.yesVoters, voter)
			}
		}
		m.lastGov = gov
		m.pendingVotes = make(map[string]bool)

	case engine.EventPolicyEnacted:
		if chaos, _ := ev.Data["chaos"].(bool); chaos {
			// Nobody chose the chaos card; it says nothing about anyone.
			return
		}
		if m.lastGov == nil {
			return
		}
		m.attribute(m.lastGov, policyFrom(ev.Data["policy"]))
		m.lastGov = nil
	}
}

// policyFrom accepts both the in-process typed value and the wire string.
func policyFrom(v any) models.PolicyType {
	switch p := v.(type) {
	case models.PolicyType:
		return p
	case string:
		return models.PolicyType(p)
	}
	return ""
}

func (m *Memory) attribute(gov *governmentRecord, policy models.PolicyType) {
	if policy == "" {
		return
	}
	led := m.ledFascist
	supported := m.supportedFascist
	if policy == models.PolicyLiberal {
		led = m.ledLiberal
		supported = m.supportedLiberal
	}
	led[gov.presidentID]++
	led[gov.chancellorID]++
	for _, voter := range gov.yesVoters {
		supported[voter]++
	}
}

// RecordInvestigation stores a party this agent confirmed while holding the
// investigation power. It is the one private input to the memory.
func (m *Memory) RecordInvestigation(targetID string, party models.Party) {
	m.investigated[targetID] = party
}

// HasConfirmed reports whether this agent already holds an investigation
// result for the target.
func (m *Memory) HasConfirmed(targetID string) bool {
	_, ok := m.investigated[targetID]
	return ok
}

// KnowsFascist reports whether the agent knows the target sits on the
// fascist team, either from role reveal or from an investigation.
func (m *Memory) KnowsFascist(targetID string) bool {
	if m.knownFascists[targetID] {
		return true
	}
	return m.investigated[targetID] == models.PartyFascist
}
