package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestStoreCreateGetDelete(t *testing.T) {
	st := NewStore(zaptest.NewLogger(t), testOptions(), time.Hour, time.Hour)

	s, hostID := st.Create("Alice")
	require.NotNil(t, s)
	assert.NotEmpty(t, hostID)
	assert.Len(t, s.Code, codeLength)

	got, err := st.Get(s.Code)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = st.Get("NOPE99")
	assert.ErrorIs(t, err, ErrUnknownSession)

	st.Delete(s.Code)
	_, err = st.Get(s.Code)
	assert.ErrorIs(t, err, ErrUnknownSession)
	assert.Zero(t, st.Count())
}

func TestStoreListsOnlyJoinableSessions(t *testing.T) {
	st := NewStore(zaptest.NewLogger(t), testOptions(), time.Hour, time.Hour)
	defer func() {
		for _, s := range st.List() {
			st.Delete(s.Code)
		}
	}()

	open, _ := st.Create("Alice")
	full, hostID := st.Create("Bob")
	require.NoError(t, full.AddBots(4))
	_, err := full.Start(hostID)
	require.NoError(t, err)
	defer st.Delete(full.Code)

	codes := []string{}
	for _, s := range st.List() {
		codes = append(codes, s.Code)
	}
	assert.Equal(t, []string{open.Code}, codes)
}

func TestStoreSweepEvictsIdleSessions(t *testing.T) {
	st := NewStore(zaptest.NewLogger(t), testOptions(), 20*time.Millisecond, 5*time.Millisecond)

	s, _ := st.Create("Alice")
	require.Equal(t, 1, st.Count())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		st.Run(ctx)
	}()

	require.Eventually(t, func() bool { return st.Count() == 0 }, time.Second, 5*time.Millisecond)
	_, err := st.Get(s.Code)
	assert.ErrorIs(t, err, ErrUnknownSession)

	cancel()
	<-done
}

func TestStoreSweepKeepsActiveSessions(t *testing.T) {
	st := NewStore(zaptest.NewLogger(t), testOptions(), time.Hour, time.Millisecond)
	s, _ := st.Create("Alice")
	defer st.Delete(s.Code)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		st.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, st.Count())

	cancel()
	<-done
}
