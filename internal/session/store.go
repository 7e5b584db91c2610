package session

import (
	"context"
	crand "crypto/rand"
	"errors"
	"math/big"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownSession marks a lookup by a code the store does not hold.
var ErrUnknownSession = errors.New("unknown session")

const (
	codeLength = 6
	codeChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Store owns every live session: creation with a unique join code, lookup,
// listing, eviction, and the inactivity sweep. Sessions themselves stay
// independent; the store's lock only guards the map.
type Store struct {
	logger *zap.Logger
	opts   Options

	ttl           time.Duration
	sweepInterval time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore wires an empty store. ttl is how long an idle session survives;
// sweepInterval is how often idleness is checked.
func NewStore(logger *zap.Logger, opts Options, ttl, sweepInterval time.Duration) *Store {
	return &Store{
		logger:        logger,
		opts:          opts,
		ttl:           ttl,
		sweepInterval: sweepInterval,
		sessions:      make(map[string]*Session),
	}
}

// generateCode creates a random join code, falling back to math/rand if the
// system source fails.
func generateCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(codeChars))))
		if err != nil {
			code[i] = codeChars[rand.Intn(len(codeChars))]
			continue
		}
		code[i] = codeChars[n.Int64()]
	}
	return string(code)
}

// Create opens a new session with the host seated and returns it along with
// the host's participant ID.
func (st *Store) Create(hostName string) (*Session, string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	code := generateCode()
	for st.sessions[code] != nil {
		code = generateCode()
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	s, hostID := New(code, hostName, st.opts, st.logger, rng)
	st.sessions[code] = s

	st.logger.Info("session created",
		zap.String("session", code),
		zap.String("host", hostName),
	)
	return s, hostID
}

// Get looks a session up by join code.
func (st *Store) Get(code string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[code]
	if !ok {
		return nil, ErrUnknownSession
	}
	return s, nil
}

// List returns the sessions still accepting participants.
func (st *Store) List() []*Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		if s.Joinable() {
			out = append(out, s)
		}
	}
	return out
}

// Delete evicts a session, cancelling its bot timers and subscribers.
func (st *Store) Delete(code string) {
	st.mu.Lock()
	s := st.sessions[code]
	delete(st.sessions, code)
	st.mu.Unlock()

	if s != nil {
		s.Close()
		st.logger.Info("session deleted", zap.String("session", code))
	}
}

// Count returns the number of live sessions.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Run sweeps for inactive sessions until ctx is cancelled.
func (st *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(st.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.sweep()
		}
	}
}

func (st *Store) sweep() {
	cutoff := time.Now().Add(-st.ttl)

	st.mu.RLock()
	var stale []string
	for code, s := range st.sessions {
		if s.LastActivity().Before(cutoff) {
			stale = append(stale, code)
		}
	}
	st.mu.RUnlock()

	for _, code := range stale {
		st.logger.Info("evicting inactive session", zap.String("session", code))
		st.Delete(code)
	}
}
