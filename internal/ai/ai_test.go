package ai

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefjnl/secret-hitler-online-game/internal/engine"
	"github.com/stefjnl/secret-hitler-online-game/internal/models"
)

func observeGovernment(m *Memory, presidentID, chancellorID string, yesVoters []string, outcome models.PolicyType) {
	m.Observe(engine.Event{Type: engine.EventChancellorNominated, Data: map[string]any{
		"president_id": presidentID, "chancellor_id": chancellorID,
	}})
	for _, v := range yesVoters {
		m.Observe(engine.Event{Type: engine.EventVoteSubmitted, Data: map[string]any{
			"player_id": v, "vote": true,
		}})
	}
	m.Observe(engine.Event{Type: engine.EventElectionResult, Data: map[string]any{
		"successful": true, "president_id": presidentID, "chancellor_id": chancellorID,
	}})
	m.Observe(engine.Event{Type: engine.EventPolicyEnacted, Data: map[string]any{
		"policy": string(outcome),
	}})
}

func TestSuspicionTracksGovernmentOutcomes(t *testing.T) {
	m := NewMemory("self", nil)

	assert.InDelta(t, 0.5, m.SuspicionOf("p1"), 0.001, "no observations yet")

	observeGovernment(m, "p1", "p2", []string{"p3"}, models.PolicyFascist)
	assert.Greater(t, m.SuspicionOf("p1"), 0.5)
	assert.Greater(t, m.SuspicionOf("p2"), 0.5)
	assert.Greater(t, m.SuspicionOf("p3"), 0.5)
	assert.Greater(t, m.SuspicionOf("p1"), m.SuspicionOf("p3"),
		"sitting in the government weighs more than voting for it")

	before := m.SuspicionOf("p1")
	observeGovernment(m, "p1", "p4", []string{"p3"}, models.PolicyLiberal)
	assert.Less(t, m.SuspicionOf("p1"), before, "liberal outcome lowers the score")
}

func TestSuspicionIgnoresChaosEnactments(t *testing.T) {
	m := NewMemory("self", nil)
	m.Observe(engine.Event{Type: engine.EventPolicyEnacted, Data: map[string]any{
		"policy": string(models.PolicyFascist), "chaos": true,
	}})
	assert.InDelta(t, 0.5, m.SuspicionOf("p1"), 0.001)
}

func TestInvestigationClampsScore(t *testing.T) {
	m := NewMemory("self", nil)
	observeGovernment(m, "p1", "p2", nil, models.PolicyFascist)

	m.RecordInvestigation("p1", models.PartyLiberal)
	m.RecordInvestigation("p2", models.PartyFascist)
	assert.InDelta(t, 0.05, m.SuspicionOf("p1"), 0.001)
	assert.InDelta(t, 0.95, m.SuspicionOf("p2"), 0.001)
}

func TestSuspicionTieBreakIsStable(t *testing.T) {
	m := NewMemory("self", nil)
	candidates := []string{"p2", "p3", "p4"}

	// All unseen participants share the base score; the first in roster
	// order must win every time.
	for i := 0; i < 10; i++ {
		assert.Equal(t, "p2", m.MostSuspicious(candidates))
		assert.Equal(t, "p2", m.LeastSuspicious(candidates))
	}
	assert.Equal(t, "", m.MostSuspicious(nil))
}

func testGame(roles map[string]models.Role) *models.Game {
	g := &models.Game{ID: "g", State: models.NewRoundState()}
	for _, id := range []string{"p1", "p2", "p3", "p4", "p5"} {
		role, ok := roles[id]
		if !ok {
			role = models.RoleLiberal
		}
		g.Players = append(g.Players, &models.Player{ID: id, Role: role, IsAlive: true})
	}
	return g
}

func expertAgent(id string, role models.Role, fellow []string) *Agent {
	return NewAgent(id, id, role, PersonalityCautious, DifficultyExpert,
		DefaultTunables(), fellow, rand.New(rand.NewSource(3)))
}

func TestLiberalDiscardsFascist(t *testing.T) {
	a := expertAgent("p1", models.RoleLiberal, nil)
	g := testGame(nil)

	dec, err := a.Decide(g, engine.Actions{
		Actions:  []string{engine.ActionDiscardPolicy},
		Policies: []models.PolicyType{models.PolicyLiberal, models.PolicyFascist, models.PolicyLiberal},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PolicyFascist, dec.Policy)
}

func TestFascistDiscardsLiberal(t *testing.T) {
	a := expertAgent("p1", models.RoleFascist, nil)
	g := testGame(map[string]models.Role{"p1": models.RoleFascist})

	dec, err := a.Decide(g, engine.Actions{
		Actions:  []string{engine.ActionDiscardPolicy},
		Policies: []models.PolicyType{models.PolicyFascist, models.PolicyLiberal, models.PolicyFascist},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PolicyLiberal, dec.Policy)
}

func TestHitlerEnactsLiberalWhilePosing(t *testing.T) {
	a := expertAgent("p1", models.RoleHitler, nil)
	g := testGame(map[string]models.Role{"p1": models.RoleHitler})
	hand := engine.Actions{
		Actions:  []string{engine.ActionEnactPolicy},
		Policies: []models.PolicyType{models.PolicyFascist, models.PolicyLiberal},
	}

	dec, err := a.Decide(g, hand)
	require.NoError(t, err)
	assert.Equal(t, models.PolicyLiberal, dec.Policy)

	g.State.FascistPolicies = 3
	dec, err = a.Decide(g, hand)
	require.NoError(t, err)
	assert.Equal(t, models.PolicyFascist, dec.Policy, "the pose ends once the track is hot")
}

func TestFascistAvoidsEarlyHitlerNomination(t *testing.T) {
	roles := map[string]models.Role{"p1": models.RoleFascist, "p2": models.RoleHitler}
	g := testGame(roles)
	a := expertAgent("p1", models.RoleFascist, []string{"p2"})
	available := engine.Actions{
		Actions:               []string{engine.ActionNominate},
		EligibleChancellorIDs: []string{"p2", "p3", "p4"},
	}

	dec, err := a.Decide(g, available)
	require.NoError(t, err)
	assert.NotEqual(t, "p2", dec.TargetID, "hitler stays hidden before three fascist policies")

	g.State.FascistPolicies = 3
	dec, err = a.Decide(g, available)
	require.NoError(t, err)
	assert.Equal(t, "p2", dec.TargetID, "hitler chancellorship is now the win")

	g.State.FascistPolicies = 0
	a.Tunables.AvoidEarlyHitler = false
	dec, err = a.Decide(g, available)
	require.NoError(t, err)
	assert.Equal(t, "p2", dec.TargetID, "tunable off")
}

func TestVoteFollowsSuspicionThreshold(t *testing.T) {
	g := testGame(nil)
	g.State.PresidentialCandidateID = "p2"
	g.State.ChancellorCandidateID = "p3"
	a := expertAgent("p1", models.RoleLiberal, nil)

	dec, err := a.Decide(g, engine.Actions{Actions: []string{engine.ActionVote}})
	require.NoError(t, err)
	assert.True(t, dec.Vote, "unknown candidates get the benefit of the doubt")

	// Three fascist-enacting governments make both candidates look dirty.
	for i := 0; i < 3; i++ {
		observeGovernment(a.Memory, "p2", "p3", nil, models.PolicyFascist)
	}
	dec, err = a.Decide(g, engine.Actions{Actions: []string{engine.ActionVote}})
	require.NoError(t, err)
	assert.False(t, dec.Vote)
}

func TestFascistBacksTeammateGovernment(t *testing.T) {
	roles := map[string]models.Role{"p1": models.RoleFascist, "p2": models.RoleHitler}
	g := testGame(roles)
	g.State.PresidentialCandidateID = "p2"
	g.State.ChancellorCandidateID = "p3"
	a := expertAgent("p1", models.RoleFascist, []string{"p2"})

	// Even a filthy-looking teammate gets the vote.
	for i := 0; i < 5; i++ {
		observeGovernment(a.Memory, "p2", "p3", nil, models.PolicyFascist)
	}
	dec, err := a.Decide(g, engine.Actions{Actions: []string{engine.ActionVote}})
	require.NoError(t, err)
	assert.True(t, dec.Vote)
}

func TestExecutionTargets(t *testing.T) {
	targets := []string{"p2", "p3", "p4"}

	liberal := expertAgent("p1", models.RoleLiberal, nil)
	observeGovernment(liberal.Memory, "p3", "p4", nil, models.PolicyFascist)
	dec, err := liberal.Decide(testGame(nil), engine.Actions{
		Actions:           []string{engine.ActionExecutePlayer},
		EligibleTargetIDs: targets,
	})
	require.NoError(t, err)
	assert.Equal(t, "p3", dec.TargetID, "most suspicious goes first")

	fascist := expertAgent("p1", models.RoleFascist, []string{"p2"})
	dec, err = fascist.Decide(testGame(map[string]models.Role{"p1": models.RoleFascist, "p2": models.RoleHitler}), engine.Actions{
		Actions:           []string{engine.ActionExecutePlayer},
		EligibleTargetIDs: targets,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "p2", dec.TargetID, "never shoots a teammate")
}

func TestInvestigationPrefersUnconfirmedTargets(t *testing.T) {
	a := expertAgent("p1", models.RoleLiberal, nil)
	a.Memory.RecordInvestigation("p2", models.PartyFascist)
	observeGovernment(a.Memory, "p2", "p3", nil, models.PolicyFascist)

	dec, err := a.Decide(testGame(nil), engine.Actions{
		Actions:           []string{engine.ActionInvestigate},
		EligibleTargetIDs: []string{"p2", "p3", "p4"},
	})
	require.NoError(t, err)
	assert.Equal(t, "p3", dec.TargetID, "a confirmed party teaches nothing new")

	// With every target already confirmed the power still resolves.
	a.Memory.RecordInvestigation("p3", models.PartyLiberal)
	a.Memory.RecordInvestigation("p4", models.PartyLiberal)
	dec, err = a.Decide(testGame(nil), engine.Actions{
		Actions:           []string{engine.ActionInvestigate},
		EligibleTargetIDs: []string{"p2", "p3", "p4"},
	})
	require.NoError(t, err)
	assert.Equal(t, "p2", dec.TargetID)
}

func TestErrorRateNeverPicksIllegalChoices(t *testing.T) {
	a := NewAgent("p1", "p1", models.RoleLiberal, PersonalityBold, DifficultyBeginner,
		DefaultTunables(), nil, rand.New(rand.NewSource(11)))
	g := testGame(nil)
	offered := []models.PolicyType{models.PolicyLiberal, models.PolicyFascist, models.PolicyFascist}
	eligible := []string{"p3", "p5"}

	for i := 0; i < 200; i++ {
		dec, err := a.Decide(g, engine.Actions{
			Actions:  []string{engine.ActionDiscardPolicy},
			Policies: offered,
		})
		require.NoError(t, err)
		assert.Contains(t, offered, dec.Policy)

		dec, err = a.Decide(g, engine.Actions{
			Actions:               []string{engine.ActionNominate},
			EligibleChancellorIDs: eligible,
		})
		require.NoError(t, err)
		assert.Contains(t, eligible, dec.TargetID)
	}
}

func TestDifficultyErrorRates(t *testing.T) {
	assert.Equal(t, 0.20, DifficultyBeginner.ErrorRate())
	assert.Equal(t, 0.05, DifficultyIntermediate.ErrorRate())
	assert.Equal(t, 0.0, DifficultyExpert.ErrorRate())
}

func TestChatAboutStaysInPersonality(t *testing.T) {
	a := expertAgent("p1", models.RoleLiberal, nil)
	rng := rand.New(rand.NewSource(13))
	ev := engine.Event{Type: engine.EventElectionResult}

	spoke := 0
	for i := 0; i < 500; i++ {
		line := a.ChatAbout(ev, rng)
		if line == "" {
			continue
		}
		spoke++
		assert.Contains(t, chatLines[PersonalityCautious][engine.EventElectionResult], line)
	}
	assert.Greater(t, spoke, 0)
	assert.Less(t, spoke, 200, "bots mostly stay quiet")

	assert.Empty(t, a.ChatAbout(engine.Event{Type: engine.EventVoteSubmitted}, rng),
		"no lines for routine events")
}

func TestDecideRejectsUnknownAction(t *testing.T) {
	a := expertAgent("p1", models.RoleLiberal, nil)
	_, err := a.Decide(testGame(nil), engine.Actions{Actions: []string{"bogus"}})
	assert.Error(t, err)
	_, err = a.Decide(testGame(nil), engine.Actions{})
	assert.Error(t, err)
}
