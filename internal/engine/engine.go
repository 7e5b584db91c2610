package engine

import (
	"fmt"
	"time"

	"github.com/stefjnl/secret-hitler-online-game/internal/models"
)

// Result is the normalized payload every action returns: a status token, the
// post-action snapshot, and kind-specific data (revealed party, peeked
// cards). Data addressed to the acting player never appears in the event
// log.
type Result struct {
	Status string         `json:"status"`
	State  StateSnapshot  `json:"state"`
	Data   map[string]any `json:"data,omitempty"`
}

// Engine drives one session's phase state machine over its game aggregate.
// Not safe for concurrent use; callers serialize access per session.
type Engine struct {
	game   *models.Game
	events []Event
	now    func() time.Time

	// hand is the legislative draw: 3 cards while the president chooses a
	// discard, 2 while the chancellor chooses an enactment, nil otherwise.
	hand []models.PolicyType

	// acked tracks role-reveal confirmations.
	acked map[string]bool

	// seatOrder fixes the presidency rotation; presidencyIdx points at the
	// seat of the current presidential candidate. A special election
	// overrides the next candidate once.
	seatOrder           []string
	presidencyIdx       int
	overrideCandidateID string
}

// New wraps a lobby-phase game aggregate.
func New(game *models.Game) *Engine {
	seats := make([]string, len(game.Players))
	for i, p := range game.Players {
		seats[i] = p.ID
	}
	return &Engine{
		game:      game,
		now:       time.Now,
		acked:     make(map[string]bool),
		seatOrder: seats,
	}
}

// Phase returns the current phase.
func (e *Engine) Phase() models.GamePhase {
	return e.game.State.Phase
}

// IsGameOver reports whether the terminal phase has been reached.
func (e *Engine) IsGameOver() bool {
	return e.game.State.Phase == models.PhaseGameOver
}

// Winner returns the winning party once the game is over.
func (e *Engine) Winner() (models.Party, bool) {
	if !e.IsGameOver() {
		return "", false
	}
	return e.game.CheckWinCondition()
}

// StartGame moves the session from lobby to role reveal. Any participant
// may start; at least five living players are required.
func (e *Engine) StartGame(actorID string) (*Result, error) {
	if e.IsGameOver() {
		return nil, ErrGameOver
	}
	if e.game.State.Phase != models.PhaseLobby {
		return nil, fmt.Errorf("%w: game has already started", ErrInvalidAction)
	}
	if p := e.game.Player(actorID); p == nil || !p.IsAlive {
		return nil, fmt.Errorf("%w: unknown participant %s", ErrNotActorsTurn, actorID)
	}
	if e.game.AliveCount() < models.MinPlayers {
		return nil, fmt.Errorf("%w: need at least %d players", ErrInvalidAction, models.MinPlayers)
	}

	e.transitionTo(models.PhaseRoleReveal)
	e.emit(EventGameStarted, map[string]any{
		"player_count": len(e.game.Players),
	})
	return e.result("game_started", nil), nil
}

// AcknowledgeRole records that a participant has seen their secret role.
// The final acknowledgement opens the first election.
func (e *Engine) AcknowledgeRole(actorID string) (*Result, error) {
	if e.IsGameOver() {
		return nil, ErrGameOver
	}
	if e.game.State.Phase != models.PhaseRoleReveal {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrWrongPhase, models.PhaseRoleReveal, e.game.State.Phase)
	}
	p := e.game.Player(actorID)
	if p == nil || !p.IsAlive {
		return nil, fmt.Errorf("%w: unknown participant %s", ErrNotActorsTurn, actorID)
	}
	if e.acked[actorID] {
		return nil, fmt.Errorf("%w: role already acknowledged", ErrInvalidAction)
	}

	e.acked[actorID] = true
	for _, alive := range e.game.AlivePlayers() {
		if !e.acked[alive.ID] {
			return e.result("role_acknowledged", nil), nil
		}
	}

	e.game.State.PresidentialCandidateID = e.seatOrder[e.presidencyIdx]
	e.transitionTo(models.PhaseElection)
	return e.result("role_acknowledged", nil), nil
}

// NominateChancellor proposes a government. Only the current presidential
// candidate may nominate, never themselves, and only from the eligible set.
func (e *Engine) NominateChancellor(presidentID, chancellorID string) (*Result, error) {
	if err := e.validate(presidentID, models.PhaseElection); err != nil {
		return nil, err
	}
	if presidentID != e.game.State.PresidentialCandidateID {
		return nil, fmt.Errorf("%w: only the presidential candidate nominates", ErrNotActorsTurn)
	}
	if chancellorID == presidentID {
		return nil, fmt.Errorf("%w: self-nomination", ErrInvalidAction)
	}
	eligible := false
	for _, c := range e.game.EligibleChancellors(presidentID) {
		if c.ID == chancellorID {
			eligible = true
			break
		}
	}
	if !eligible {
		return nil, fmt.Errorf("%w: %s is not an eligible chancellor", ErrInvalidTarget, chancellorID)
	}

	e.game.State.ChancellorCandidateID = chancellorID
	e.game.State.Votes = make(map[string]bool)

	e.emit(EventChancellorNominated, map[string]any{
		"president_id":  presidentID,
		"chancellor_id": chancellorID,
	})
	return e.result("nomination_successful", nil), nil
}

// SubmitVote records one ballot. The two candidates do not vote. The ballot
// completing the electorate triggers the tally.
func (e *Engine) SubmitVote(voterID string, vote bool) (*Result, error) {
	if err := e.validate(voterID, models.PhaseElection); err != nil {
		return nil, err
	}
	if e.game.State.ChancellorCandidateID == "" {
		return nil, fmt.Errorf("%w: no chancellor nominated", ErrInvalidAction)
	}
	if voterID == e.game.State.PresidentialCandidateID || voterID == e.game.State.ChancellorCandidateID {
		return nil, fmt.Errorf("%w: candidates do not vote", ErrInvalidAction)
	}
	if _, voted := e.game.State.Votes[voterID]; voted {
		return nil, fmt.Errorf("%w: already voted", ErrInvalidAction)
	}

	e.game.State.Votes[voterID] = vote
	e.emit(EventVoteSubmitted, map[string]any{
		"player_id": voterID,
		"vote":      vote,
	})

	if len(e.game.State.Votes) < e.votesNeeded() {
		return e.result("vote_recorded", nil), nil
	}
	return e.tallyElection()
}

// votesNeeded is the electorate size: everyone alive minus both candidates.
func (e *Engine) votesNeeded() int {
	if e.game.State.ChancellorCandidateID == "" {
		return 0
	}
	return e.game.AliveCount() - 2
}

func (e *Engine) tallyElection() (*Result, error) {
	presidentID := e.game.State.PresidentialCandidateID
	chancellorID := e.game.State.ChancellorCandidateID

	formed, chaos, chaosPolicy := e.game.ProcessVotes()
	if formed {
		e.emit(EventElectionResult, map[string]any{
			"successful":    true,
			"president_id":  presidentID,
			"chancellor_id": chancellorID,
		})
		// Electing hitler chancellor on a board with three or more fascist
		// policies ends the game before any legislative session happens.
		if winner, over := e.game.CheckWinCondition(); over {
			e.finishGame(winner)
			return e.result("government_formed", map[string]any{"winner": winner}), nil
		}
		e.enterLegislativeSession()
		return e.result("government_formed", nil), nil
	}

	e.emit(EventElectionResult, map[string]any{
		"successful":       false,
		"election_tracker": e.game.State.ElectionTracker,
		"chaos":            chaos,
	})

	if chaos {
		// Three consecutive failures: the populace enacted the top card on
		// its own. Win check still applies; no presidential power arms.
		e.emit(EventPolicyEnacted, map[string]any{
			"policy": chaosPolicy,
			"chaos":  true,
		})
		if winner, over := e.game.CheckWinCondition(); over {
			e.finishGame(winner)
			return e.result("chaos_scenario", map[string]any{"winner": winner}), nil
		}
		e.nextElection()
		return e.result("chaos_scenario", map[string]any{"policy": chaosPolicy}), nil
	}

	e.nextElection()
	return e.result("election_failed", nil), nil
}

// enterLegislativeSession draws the president's three cards and pre-arms a
// pending power when the board already shows three or more fascist policies.
func (e *Engine) enterLegislativeSession() {
	e.transitionTo(models.PhaseLegislativeSession)
	e.hand = e.game.DrawPolicies(3)
	e.emit(EventPolicyDrawn, map[string]any{
		"president_id": e.game.State.PresidentialCandidateID,
		"count":        len(e.hand),
	})
	if e.game.State.FascistPolicies >= 3 {
		e.armPower()
	}
}

// armPower recomputes the pending power from the current board and the
// lookup table. Re-arming the already pending kind does not emit twice.
func (e *Engine) armPower() {
	power := models.PowerFor(e.game.State.FascistPolicies, e.game.AliveCount())
	if power == models.PowerNone || power == e.game.State.PendingPower {
		return
	}
	e.game.State.PendingPower = power
	e.emit(EventPowerTriggered, map[string]any{
		"power":        power,
		"president_id": e.game.State.PresidentialCandidateID,
	})
}

// DiscardPolicy is the president's half of the legislative session: one of
// the three drawn cards goes to the discard pile.
func (e *Engine) DiscardPolicy(presidentID string, policy models.PolicyType) (*Result, error) {
	if err := e.validate(presidentID, models.PhaseLegislativeSession); err != nil {
		return nil, err
	}
	if presidentID != e.game.State.PresidentialCandidateID {
		return nil, fmt.Errorf("%w: only the president discards", ErrNotActorsTurn)
	}
	if len(e.hand) != 3 {
		return nil, fmt.Errorf("%w: president has already discarded", ErrInvalidAction)
	}
	if !e.takeFromHand(policy) {
		return nil, fmt.Errorf("%w: %s is not among the drawn policies", ErrInvalidAction, policy)
	}

	e.game.Discard = append(e.game.Discard, policy)
	e.emit(EventPolicyDiscarded, map[string]any{
		"president_id": presidentID,
		"policy":       policy,
	})
	return e.result("policy_discarded", nil), nil
}

// EnactPolicy is the chancellor's half: one of the two remaining cards is
// enacted, the last card returns to the top of the deck. Then win conditions
// and power arming are evaluated.
func (e *Engine) EnactPolicy(chancellorID string, policy models.PolicyType) (*Result, error) {
	if err := e.validate(chancellorID, models.PhaseLegislativeSession); err != nil {
		return nil, err
	}
	if chancellorID != e.game.State.ChancellorCandidateID {
		return nil, fmt.Errorf("%w: only the chancellor enacts", ErrNotActorsTurn)
	}
	if len(e.hand) != 2 {
		return nil, fmt.Errorf("%w: waiting for the president's discard", ErrInvalidAction)
	}
	if !e.takeFromHand(policy) {
		return nil, fmt.Errorf("%w: %s is not among the remaining policies", ErrInvalidAction, policy)
	}

	e.game.ReturnToDeck(e.hand...)
	e.hand = nil
	e.game.EnactPolicy(policy)
	e.emit(EventPolicyEnacted, map[string]any{
		"chancellor_id": chancellorID,
		"policy":        policy,
	})

	if winner, over := e.game.CheckWinCondition(); over {
		e.finishGame(winner)
		return e.result("policy_enacted", map[string]any{"winner": winner}), nil
	}

	// Only a fascist enactment reaches a new level on the track; a liberal
	// card never arms a power.
	if policy == models.PolicyFascist {
		e.armPower()
	}
	if e.game.State.PendingPower != models.PowerNone {
		e.transitionTo(models.PhasePresidentialPower)
		return e.result("policy_enacted_power_triggered", nil), nil
	}

	e.nextElection()
	return e.result("policy_enacted", nil), nil
}

func (e *Engine) takeFromHand(policy models.PolicyType) bool {
	for i, card := range e.hand {
		if card == policy {
			e.hand = append(e.hand[:i], e.hand[i+1:]...)
			return true
		}
	}
	return false
}

// InvestigateLoyalty reveals a target's party to the sitting president. The
// revealed party travels only in the result, never in the broadcast event.
// Repeat investigations of the same target are legal and simply overwrite
// the recorded party.
func (e *Engine) InvestigateLoyalty(presidentID, targetID string) (*Result, error) {
	if err := e.validatePower(presidentID, models.PowerInvestigate); err != nil {
		return nil, err
	}
	target, err := e.powerTarget(presidentID, targetID)
	if err != nil {
		return nil, err
	}

	party := target.Party()
	e.game.State.InvestigatedPlayers[targetID] = party

	e.emit(EventPowerExecuted, map[string]any{
		"power":     models.PowerInvestigate,
		"target_id": targetID,
	})
	e.clearPower()
	e.nextElection()
	return e.result("investigation_complete", map[string]any{
		"target_id": targetID,
		"party":     party,
	}), nil
}

// CallSpecialElection makes the target the next presidential candidate.
func (e *Engine) CallSpecialElection(presidentID, targetID string) (*Result, error) {
	if err := e.validatePower(presidentID, models.PowerSpecialElection); err != nil {
		return nil, err
	}
	if _, err := e.powerTarget(presidentID, targetID); err != nil {
		return nil, err
	}

	e.overrideCandidateID = targetID
	e.emit(EventPowerExecuted, map[string]any{
		"power":     models.PowerSpecialElection,
		"target_id": targetID,
	})
	e.clearPower()
	e.nextElection()
	return e.result("special_election_called", map[string]any{
		"next_president_id": targetID,
	}), nil
}

// PolicyPeek shows the president the top three cards without disturbing the
// deck. The cards travel only in the result.
func (e *Engine) PolicyPeek(presidentID string) (*Result, error) {
	if err := e.validatePower(presidentID, models.PowerPolicyPeek); err != nil {
		return nil, err
	}

	peeked := e.game.PeekPolicies(3)
	e.emit(EventPowerExecuted, map[string]any{
		"power": models.PowerPolicyPeek,
	})
	e.clearPower()
	e.nextElection()
	return e.result("policies_peeked", map[string]any{
		"policies": peeked,
	}), nil
}

// ExecutePlayer eliminates the target. Shooting hitler ends the game with a
// liberal win immediately.
func (e *Engine) ExecutePlayer(presidentID, targetID string) (*Result, error) {
	if err := e.validatePower(presidentID, models.PowerExecution); err != nil {
		return nil, err
	}
	target, err := e.powerTarget(presidentID, targetID)
	if err != nil {
		return nil, err
	}

	wasHitler := target.IsHitler()
	e.game.EliminatePlayer(targetID)
	e.emit(EventPlayerEliminated, map[string]any{
		"player_id":  targetID,
		"was_hitler": wasHitler,
	})
	e.emit(EventPowerExecuted, map[string]any{
		"power":      models.PowerExecution,
		"target_id":  targetID,
		"was_hitler": wasHitler,
	})
	e.clearPower()

	if winner, over := e.game.CheckWinCondition(); over {
		e.finishGame(winner)
		return e.result("execution_complete", map[string]any{
			"eliminated_player_id": targetID,
			"winner":               winner,
		}), nil
	}

	e.nextElection()
	return e.result("execution_complete", map[string]any{
		"eliminated_player_id": targetID,
	}), nil
}

// validate runs the checks shared by every action: terminal phase, expected
// phase, known living actor. It never mutates.
func (e *Engine) validate(actorID string, expected models.GamePhase) error {
	if e.IsGameOver() {
		return ErrGameOver
	}
	if e.game.State.Phase != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrWrongPhase, expected, e.game.State.Phase)
	}
	if p := e.game.Player(actorID); p == nil || !p.IsAlive {
		return fmt.Errorf("%w: unknown participant %s", ErrNotActorsTurn, actorID)
	}
	return nil
}

// validatePower additionally requires the sitting president and a matching
// pending power.
func (e *Engine) validatePower(presidentID string, expected models.PresidentialPower) error {
	if err := e.validate(presidentID, models.PhasePresidentialPower); err != nil {
		return err
	}
	if presidentID != e.game.State.PresidentialCandidateID {
		return fmt.Errorf("%w: only the president executes powers", ErrNotActorsTurn)
	}
	if e.game.State.PendingPower != expected {
		return fmt.Errorf("%w: pending power is %s, not %s", ErrInvalidAction, e.game.State.PendingPower, expected)
	}
	return nil
}

// powerTarget checks target eligibility for targeted powers: a living
// participant other than the president.
func (e *Engine) powerTarget(presidentID, targetID string) (*models.Player, error) {
	target := e.game.Player(targetID)
	if target == nil || !target.IsAlive {
		return nil, fmt.Errorf("%w: no living participant %s", ErrInvalidTarget, targetID)
	}
	if targetID == presidentID {
		return nil, fmt.Errorf("%w: president cannot target themselves", ErrInvalidTarget)
	}
	return target, nil
}

// clearPower is the final step of every power execution.
func (e *Engine) clearPower() {
	e.game.State.PendingPower = models.PowerNone
	e.game.State.PowerTargetID = ""
}

// nextElection opens a new election round. A special-election override wins
// over rotation; otherwise the presidency passes to the next living seat.
func (e *Engine) nextElection() {
	if e.overrideCandidateID != "" {
		e.game.State.PresidentialCandidateID = e.overrideCandidateID
		e.seatTo(e.overrideCandidateID)
		e.overrideCandidateID = ""
	} else {
		e.advancePresidency()
		e.game.State.PresidentialCandidateID = e.seatOrder[e.presidencyIdx]
	}
	e.game.State.ChancellorCandidateID = ""
	e.game.State.Votes = make(map[string]bool)

	if e.game.State.Phase != models.PhaseElection {
		e.transitionTo(models.PhaseElection)
	}
}

func (e *Engine) advancePresidency() {
	for i := 1; i <= len(e.seatOrder); i++ {
		idx := (e.presidencyIdx + i) % len(e.seatOrder)
		if p := e.game.Player(e.seatOrder[idx]); p != nil && p.IsAlive {
			e.presidencyIdx = idx
			return
		}
	}
}

func (e *Engine) seatTo(playerID string) {
	for i, id := range e.seatOrder {
		if id == playerID {
			e.presidencyIdx = i
			return
		}
	}
}

func (e *Engine) finishGame(winner models.Party) {
	e.transitionTo(models.PhaseGameOver)
	e.emit(EventGameOver, map[string]any{
		"winner": winner,
	})
}

func (e *Engine) transitionTo(phase models.GamePhase) {
	from := e.game.State.Phase
	e.game.State.Phase = phase
	e.emit(EventPhaseChanged, map[string]any{
		"from": from,
		"to":   phase,
	})
}

func (e *Engine) result(status string, data map[string]any) *Result {
	return &Result{
		Status: status,
		State:  e.snapshot(),
		Data:   data,
	}
}
