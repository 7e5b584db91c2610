package ai

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stefjnl/secret-hitler-online-game/internal/engine"
	"github.com/stefjnl/secret-hitler-online-game/internal/models"
)

// maxDecisionFailures is how many consecutive decision faults a seat
// tolerates before the agent is replaced with a fresh one.
const maxDecisionFailures = 3

// Submitter is the session-side sink for scheduled decisions and chat. A
// submitted decision goes through the same validation as a human action and
// may be rejected if the game moved on while the agent was "thinking".
type Submitter interface {
	SubmitDecision(playerID string, dec Decision)
	RelayChat(playerID, message string)
}

// Director owns a session's automated participants: it fans the event feed
// into their memories, asks them for decisions after each mutation, and
// submits those decisions after a human-paced delay. All exported methods
// except the internal timer callbacks must be called under the session's
// serialization; the director adds its own lock only for the state the
// timer goroutines touch.
type Director struct {
	logger *zap.Logger
	submit Submitter
	rng    *rand.Rand

	delayMin time.Duration
	delayMax time.Duration

	mu       sync.Mutex
	agents   map[string]*Agent
	pending  map[string]bool
	failures map[string]int
}

// NewDirector wires an empty director for one session.
func NewDirector(logger *zap.Logger, submit Submitter, rng *rand.Rand, delayMin, delayMax time.Duration) *Director {
	if delayMax < delayMin {
		delayMax = delayMin
	}
	return &Director{
		logger:   logger,
		submit:   submit,
		rng:      rng,
		delayMin: delayMin,
		delayMax: delayMax,
		agents:   make(map[string]*Agent),
		pending:  make(map[string]bool),
		failures: make(map[string]int),
	}
}

// Register adds an agent for a seat.
func (d *Director) Register(agent *Agent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.agents[agent.ID] = agent
}

// Agent returns the agent seated at id, if any.
func (d *Director) Agent(id string) *Agent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.agents[id]
}

// Observe fans new events into every agent's memory and occasionally relays
// a chat line reacting to them.
func (d *Director) Observe(events []engine.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ev := range events {
		for _, agent := range d.agents {
			agent.Memory.Observe(ev)
			if line := agent.ChatAbout(ev, d.rng); line != "" {
				go d.submit.RelayChat(agent.ID, line)
			}
		}
	}
}

// Dispatch runs the post-mutation hook: every automated seat that may act
// and has nothing in flight gets a decision computed against the current
// snapshot, scheduled for submission after a randomized delay. A decision
// that panics or fails is logged and the seat skipped for this cycle;
// repeated faults replace the agent.
func (d *Director) Dispatch(ctx context.Context, game *models.Game, actionsFor func(playerID string) engine.Actions) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, agent := range d.agents {
		if d.pending[id] {
			continue
		}
		available := actionsFor(id)
		if available.Empty() {
			continue
		}

		dec, err := d.decide(agent, game, available)
		if err != nil {
			d.faulted(agent, err)
			continue
		}
		d.failures[id] = 0
		d.pending[id] = true

		delay := d.delayMin
		if span := d.delayMax - d.delayMin; span > 0 {
			delay += time.Duration(d.rng.Int63n(int64(span)))
		}
		go d.deliver(ctx, id, dec, delay)
	}
}

// decide contains agent faults: a panicking strategy is converted into an
// error instead of taking the session down.
func (d *Director) decide(agent *Agent, game *models.Game, available engine.Actions) (dec Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &decisionPanic{agentID: agent.ID, value: r}
		}
	}()
	return agent.Decide(game, available)
}

type decisionPanic struct {
	agentID string
	value   any
}

func (p *decisionPanic) Error() string {
	return "decision panicked"
}

func (d *Director) faulted(agent *Agent, err error) {
	d.failures[agent.ID]++
	d.logger.Warn("agent decision failed",
		zap.String("agent_id", agent.ID),
		zap.Int("consecutive_failures", d.failures[agent.ID]),
		zap.Error(err),
	)
	if d.failures[agent.ID] < maxDecisionFailures {
		return
	}

	// Same seat, same disposition, blank memory. Fascist knowledge is the
	// only seeded state worth carrying over.
	replacement := NewAgent(agent.ID, agent.Name, agent.Role, agent.Personality, agent.Difficulty, agent.Tunables, nil, d.rng)
	replacement.Memory.knownFascists = agent.Memory.knownFascists
	d.agents[agent.ID] = replacement
	d.failures[agent.ID] = 0
	d.logger.Warn("agent replaced after repeated decision failures",
		zap.String("agent_id", agent.ID),
	)
}

func (d *Director) deliver(ctx context.Context, agentID string, dec Decision, delay time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		d.mu.Lock()
		delete(d.pending, agentID)
		d.mu.Unlock()
		return
	case <-timer.C:
	}

	d.mu.Lock()
	delete(d.pending, agentID)
	d.mu.Unlock()

	d.submit.SubmitDecision(agentID, dec)
}
