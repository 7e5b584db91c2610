package models

import (
	"fmt"
	"math/rand"
)

const (
	// MinPlayers and MaxPlayers bound the roster size at game start.
	MinPlayers = 5
	MaxPlayers = 10

	// LiberalPolicyCount and FascistPolicyCount fix the card universe.
	// Deck + discard + enacted counters always sum to their total.
	LiberalPolicyCount = 6
	FascistPolicyCount = 11

	// LiberalPoliciesToWin and FascistPoliciesToWin are the enacted-policy
	// win thresholds.
	LiberalPoliciesToWin = 5
	FascistPoliciesToWin = 6
)

// RosterEntry is the seat information the session layer hands over at game
// start: identity, display name and whether the seat is automated.
type RosterEntry struct {
	ID    string
	Name  string
	Human bool
}

// Game is the authoritative aggregate of one session: roster with secret
// roles, the policy deck and discard pile, and the round state. It is not
// safe for concurrent use; the session layer serializes access.
type Game struct {
	ID      string
	Players []*Player
	State   RoundState

	// Deck is ordered with the top card at the end; Discard collects
	// discarded cards until a reshuffle folds them back in.
	Deck    []PolicyType
	Discard []PolicyType

	rng *rand.Rand
}

// NewGame assembles the aggregate from a roster: roles are assigned from the
// fixed multiset for the roster size (uniformly shuffled), and the policy
// deck is built and shuffled. Fails if the roster is outside 5-10 seats.
func NewGame(id string, roster []RosterEntry, rng *rand.Rand) (*Game, error) {
	counts, ok := roleCounts[len(roster)]
	if !ok {
		return nil, fmt.Errorf("roster size %d: need %d-%d players", len(roster), MinPlayers, MaxPlayers)
	}

	roles := make([]Role, 0, len(roster))
	for i := 0; i < counts.liberals; i++ {
		roles = append(roles, RoleLiberal)
	}
	for i := 0; i < counts.fascists; i++ {
		roles = append(roles, RoleFascist)
	}
	roles = append(roles, RoleHitler)
	rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	players := make([]*Player, len(roster))
	for i, seat := range roster {
		players[i] = &Player{
			ID:      seat.ID,
			Name:    seat.Name,
			Role:    roles[i],
			IsHuman: seat.Human,
			IsAlive: true,
		}
	}

	g := &Game{
		ID:      id,
		Players: players,
		State:   NewRoundState(),
		rng:     rng,
	}
	g.buildDeck()
	return g, nil
}

func (g *Game) buildDeck() {
	g.Deck = make([]PolicyType, 0, LiberalPolicyCount+FascistPolicyCount)
	for i := 0; i < LiberalPolicyCount; i++ {
		g.Deck = append(g.Deck, PolicyLiberal)
	}
	for i := 0; i < FascistPolicyCount; i++ {
		g.Deck = append(g.Deck, PolicyFascist)
	}
	g.rng.Shuffle(len(g.Deck), func(i, j int) {
		g.Deck[i], g.Deck[j] = g.Deck[j], g.Deck[i]
	})
	g.Discard = nil
}

// Player looks up a participant by ID.
func (g *Game) Player(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// AlivePlayers returns the living participants in seat order.
func (g *Game) AlivePlayers() []*Player {
	alive := make([]*Player, 0, len(g.Players))
	for _, p := range g.Players {
		if p.IsAlive {
			alive = append(alive, p)
		}
	}
	return alive
}

// AliveCount returns the number of living participants.
func (g *Game) AliveCount() int {
	return len(g.AlivePlayers())
}

// Hitler returns the participant holding the hitler role.
func (g *Game) Hitler() *Player {
	for _, p := range g.Players {
		if p.IsHitler() {
			return p
		}
	}
	return nil
}

// DrawPolicies pops n cards from the top of the deck. When the deck runs out
// mid-draw the discard pile is reshuffled into a fresh deck; callers never
// see the underflow.
func (g *Game) DrawPolicies(n int) []PolicyType {
	drawn := make([]PolicyType, 0, n)
	for i := 0; i < n; i++ {
		if len(g.Deck) == 0 {
			g.reshuffleDiscard()
		}
		top := g.Deck[len(g.Deck)-1]
		g.Deck = g.Deck[:len(g.Deck)-1]
		drawn = append(drawn, top)
	}
	return drawn
}

// PeekPolicies returns the top n cards without removing them. If fewer than
// n cards remain the discard pile is reshuffled in first, same as a draw
// would do, so the peek matches what the next draw will produce.
func (g *Game) PeekPolicies(n int) []PolicyType {
	if len(g.Deck) < n {
		g.reshuffleDiscard()
	}
	peeked := make([]PolicyType, 0, n)
	for i := 0; i < n && i < len(g.Deck); i++ {
		peeked = append(peeked, g.Deck[len(g.Deck)-1-i])
	}
	return peeked
}

// ReturnToDeck puts cards back on top of the deck, first card on top.
func (g *Game) ReturnToDeck(cards ...PolicyType) {
	for i := len(cards) - 1; i >= 0; i-- {
		g.Deck = append(g.Deck, cards[i])
	}
}

func (g *Game) reshuffleDiscard() {
	reshuffled := append(g.Discard, g.Deck...)
	g.rng.Shuffle(len(reshuffled), func(i, j int) {
		reshuffled[i], reshuffled[j] = reshuffled[j], reshuffled[i]
	})
	g.Deck = reshuffled
	g.Discard = nil
}

// EligibleChancellors returns the living participants a president may
// nominate: everyone except the president and the members of the previous
// government. The limit relaxes as soon as a different government has held
// office, because only the last president and chancellor are remembered.
func (g *Game) EligibleChancellors(presidentID string) []*Player {
	eligible := make([]*Player, 0, len(g.Players))
	for _, p := range g.AlivePlayers() {
		if p.ID == presidentID || p.ID == g.State.LastPresidentID || p.ID == g.State.LastChancellorID {
			continue
		}
		eligible = append(eligible, p)
	}
	return eligible
}

// ProcessVotes tallies the collected ballots. A strict majority of cast
// votes forms the government: the pair is appended to the history (with the
// fascist count at formation) and becomes the term-limit memory. A tie or
// minority fails the election and advances the tracker. Votes are cleared
// either way. Returns whether the government was formed and whether a chaos
// enactment fired, along with the chaos policy.
func (g *Game) ProcessVotes() (formed bool, chaos bool, chaosPolicy PolicyType) {
	yes := 0
	for _, v := range g.State.Votes {
		if v {
			yes++
		}
	}
	cast := len(g.State.Votes)
	g.State.Votes = make(map[string]bool)

	if yes*2 > cast {
		g.State.GovernmentHistory = append(g.State.GovernmentHistory, Government{
			PresidentID:                g.State.PresidentialCandidateID,
			ChancellorID:               g.State.ChancellorCandidateID,
			FascistPoliciesAtFormation: g.State.FascistPolicies,
		})
		g.State.LastPresidentID = g.State.PresidentialCandidateID
		g.State.LastChancellorID = g.State.ChancellorCandidateID
		return true, false, ""
	}

	chaos, chaosPolicy = g.AdvanceElectionTracker()
	return false, chaos, chaosPolicy
}

// AdvanceElectionTracker bumps the failed-election tracker. At three
// failures the populace acts on its own: the top policy is enacted with no
// chancellor and the tracker resets. The chaos card is accounted for only by
// its policy counter, keeping the 17-card universe intact.
func (g *Game) AdvanceElectionTracker() (chaos bool, enacted PolicyType) {
	g.State.ElectionTracker++
	if g.State.ElectionTracker < 3 {
		return false, ""
	}
	enacted = g.DrawPolicies(1)[0]
	g.EnactPolicy(enacted)
	g.State.ElectionTracker = 0
	return true, enacted
}

// EnactPolicy moves a card from play into the matching enacted counter.
func (g *Game) EnactPolicy(policy PolicyType) {
	if policy == PolicyLiberal {
		g.State.LiberalPolicies++
	} else {
		g.State.FascistPolicies++
	}
}

// EliminatePlayer marks a participant dead. A dead hitler is a terminal
// condition, but phase transitions belong to the engine; callers run
// CheckWinCondition after every elimination.
func (g *Game) EliminatePlayer(id string) {
	if p := g.Player(id); p != nil {
		p.IsAlive = false
	}
}

// CheckWinCondition reports the winning party, if any. Liberal conditions
// are checked first so that executing hitler wins even on a board that
// simultaneously satisfies a fascist condition.
func (g *Game) CheckWinCondition() (Party, bool) {
	if g.State.LiberalPolicies >= LiberalPoliciesToWin {
		return PartyLiberal, true
	}
	if h := g.Hitler(); h != nil && !h.IsAlive {
		return PartyLiberal, true
	}
	if g.State.FascistPolicies >= FascistPoliciesToWin {
		return PartyFascist, true
	}
	if gov, ok := g.State.LastGovernment(); ok && gov.FascistPoliciesAtFormation >= 3 {
		if c := g.Player(gov.ChancellorID); c != nil && c.IsHitler() {
			return PartyFascist, true
		}
	}
	return "", false
}
