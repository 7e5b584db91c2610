// Package engine implements the rules engine for a session: it validates
// every player action against the game aggregate, drives the phase state
// machine, and records an append-only event log. The engine is pure
// state-in/state-out and performs no I/O; the session layer serializes
// access and relays events.
package engine

import "errors"

// Rule violations are expected, caller-recoverable conditions. The engine
// guarantees state is untouched when one of these is returned: validation
// completes before any write. The HTTP boundary maps them to status codes.
var (
	// ErrInvalidAction marks an action that is never legal in the given
	// context: double votes, self-nomination, a candidate trying to vote.
	ErrInvalidAction = errors.New("invalid action")

	// ErrWrongPhase marks an action that exists but is not legal in the
	// current phase.
	ErrWrongPhase = errors.New("wrong phase")

	// ErrNotActorsTurn marks an actor without authority for the action.
	ErrNotActorsTurn = errors.New("not actor's turn")

	// ErrInvalidTarget marks a target failing eligibility rules: dead,
	// the president themselves, or outside the eligible set.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrGameOver marks any mutating action after the terminal phase.
	ErrGameOver = errors.New("game is over")
)

// IsRuleViolation reports whether err is one of the expected rule-violation
// kinds, as opposed to an internal fault.
func IsRuleViolation(err error) bool {
	return errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrWrongPhase) ||
		errors.Is(err, ErrNotActorsTurn) ||
		errors.Is(err, ErrInvalidTarget) ||
		errors.Is(err, ErrGameOver)
}
