package ai

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/stefjnl/secret-hitler-online-game/internal/engine"
	"github.com/stefjnl/secret-hitler-online-game/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSubmitter struct {
	mu        sync.Mutex
	decisions []Decision
	actors    []string
}

func (r *recordingSubmitter) SubmitDecision(playerID string, dec Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actors = append(r.actors, playerID)
	r.decisions = append(r.decisions, dec)
}

func (r *recordingSubmitter) RelayChat(playerID, message string) {}

func (r *recordingSubmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.decisions)
}

func newTestDirector(t *testing.T, sink *recordingSubmitter) *Director {
	t.Helper()
	return NewDirector(zaptest.NewLogger(t), sink, rand.New(rand.NewSource(5)),
		time.Millisecond, 2*time.Millisecond)
}

func TestDirectorDeliversDecisions(t *testing.T) {
	sink := &recordingSubmitter{}
	d := newTestDirector(t, sink)
	d.Register(expertAgent("p1", models.RoleLiberal, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d.Dispatch(ctx, testGame(nil), func(id string) engine.Actions {
		return engine.Actions{Actions: []string{engine.ActionAcknowledgeRole}}
	})

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, engine.ActionAcknowledgeRole, sink.decisions[0].Action)
	assert.Equal(t, "p1", sink.actors[0])
}

func TestDirectorSkipsSeatsWithNothingToDo(t *testing.T) {
	sink := &recordingSubmitter{}
	d := newTestDirector(t, sink)
	d.Register(expertAgent("p1", models.RoleLiberal, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d.Dispatch(ctx, testGame(nil), func(id string) engine.Actions {
		return engine.Actions{}
	})

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, sink.count())
}

func TestDirectorDoesNotDoubleSchedule(t *testing.T) {
	sink := &recordingSubmitter{}
	d := NewDirector(zaptest.NewLogger(t), sink, rand.New(rand.NewSource(5)),
		50*time.Millisecond, 50*time.Millisecond)
	d.Register(expertAgent("p1", models.RoleLiberal, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	actions := func(id string) engine.Actions {
		return engine.Actions{Actions: []string{engine.ActionAcknowledgeRole}}
	}
	d.Dispatch(ctx, testGame(nil), actions)
	d.Dispatch(ctx, testGame(nil), actions)
	d.Dispatch(ctx, testGame(nil), actions)

	require.Eventually(t, func() bool { return sink.count() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, sink.count(), "one in-flight decision per seat")
}

func TestDirectorCancellationStopsDelivery(t *testing.T) {
	sink := &recordingSubmitter{}
	d := NewDirector(zaptest.NewLogger(t), sink, rand.New(rand.NewSource(5)),
		time.Hour, time.Hour)
	d.Register(expertAgent("p1", models.RoleLiberal, nil))

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, testGame(nil), func(id string) engine.Actions {
		return engine.Actions{Actions: []string{engine.ActionAcknowledgeRole}}
	})
	cancel()

	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return !d.pending["p1"]
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, sink.count())
}

func TestDirectorContainsAndReplacesFailingAgent(t *testing.T) {
	sink := &recordingSubmitter{}
	d := newTestDirector(t, sink)
	original := expertAgent("p1", models.RoleFascist, []string{"p2"})
	d.Register(original)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// An action the strategy layer does not understand faults the decision
	// without aborting the dispatch cycle.
	broken := func(id string) engine.Actions {
		return engine.Actions{Actions: []string{"bogus"}}
	}
	for i := 0; i < maxDecisionFailures; i++ {
		assert.NotPanics(t, func() { d.Dispatch(ctx, testGame(nil), broken) })
	}

	replacement := d.Agent("p1")
	require.NotNil(t, replacement)
	assert.NotSame(t, original, replacement)
	assert.Equal(t, original.Personality, replacement.Personality)
	assert.True(t, replacement.Memory.KnowsFascist("p2"), "team knowledge survives replacement")
	assert.Zero(t, sink.count())
}
