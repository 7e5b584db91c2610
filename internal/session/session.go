// Package session is the boundary between transport and the rules engine:
// it owns one lobby-to-game lifecycle per session, serializes all mutations
// behind a mutex, relays the event log to subscribers, and runs the
// post-mutation hook that keeps automated participants moving.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stefjnl/secret-hitler-online-game/internal/ai"
	"github.com/stefjnl/secret-hitler-online-game/internal/engine"
	"github.com/stefjnl/secret-hitler-online-game/internal/models"
	"github.com/stefjnl/secret-hitler-online-game/internal/ws"
)

// Lobby-level failures, distinct from the engine's rule violations.
var (
	ErrSessionFull    = errors.New("session is full")
	ErrNameTaken      = errors.New("name already taken")
	ErrAlreadyStarted = errors.New("game has already started")
	ErrNotStarted     = errors.New("game has not started")
	ErrNotSeated      = errors.New("participant is not in this session")
)

// Options tunes a session's automated participants.
type Options struct {
	BotDelayMin      time.Duration
	BotDelayMax      time.Duration
	BotErrorRate     float64
	AvoidEarlyHitler bool
}

// Seat is one roster slot before the game starts.
type Seat struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Human       bool           `json:"human"`
	Personality ai.Personality `json:"-"`
	Difficulty  ai.Difficulty  `json:"-"`
}

// Session is one independent unit of mutable state: roster, then game plus
// engine once started, with a websocket hub and a bot director attached.
// All mutations funnel through mu; sessions never share state.
type Session struct {
	Code      string
	CreatedAt time.Time

	logger   *zap.Logger
	hub      *ws.Hub
	director *ai.Director
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	seats        []Seat
	hostID       string
	game         *models.Game
	eng          *engine.Engine
	relayCursor  int
	lastActivity time.Time
	rng          *rand.Rand
}

// New creates a lobby-phase session with the given host seated.
func New(code, hostName string, opts Options, logger *zap.Logger, rng *rand.Rand) (*Session, string) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		Code:         code,
		CreatedAt:    time.Now(),
		logger:       logger.With(zap.String("session", code)),
		hub:          ws.NewHub(logger.With(zap.String("session", code))),
		opts:         opts,
		ctx:          ctx,
		cancel:       cancel,
		lastActivity: time.Now(),
		rng:          rng,
	}
	s.director = ai.NewDirector(s.logger, s, rng, opts.BotDelayMin, opts.BotDelayMax)

	hostID := uuid.NewString()
	s.seats = append(s.seats, Seat{ID: hostID, Name: hostName, Human: true})
	s.hostID = hostID
	return s, hostID
}

// Hub exposes the subscriber hub to the transport layer.
func (s *Session) Hub() *ws.Hub {
	return s.hub
}

// LastActivity returns the inactivity timestamp the sweep reads.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Close cancels in-flight bot timers and disconnects subscribers.
func (s *Session) Close() {
	s.cancel()
	s.hub.Close()
}

func (s *Session) touch() {
	s.lastActivity = time.Now()
}

// Join seats a human participant. Only possible before the game starts.
func (s *Session) Join(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.eng != nil {
		return "", ErrAlreadyStarted
	}
	if len(s.seats) >= models.MaxPlayers {
		return "", ErrSessionFull
	}
	for _, seat := range s.seats {
		if seat.Name == name {
			return "", fmt.Errorf("%w: %s", ErrNameTaken, name)
		}
	}

	id := uuid.NewString()
	s.seats = append(s.seats, Seat{ID: id, Name: name, Human: true})
	s.broadcastLobby()
	return id, nil
}

// Leave frees a seat before the game starts. If the host leaves, the oldest
// remaining human inherits the session.
func (s *Session) Leave(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.eng != nil {
		return ErrAlreadyStarted
	}
	for i, seat := range s.seats {
		if seat.ID != playerID {
			continue
		}
		s.seats = append(s.seats[:i], s.seats[i+1:]...)
		if playerID == s.hostID {
			s.hostID = ""
			for _, remaining := range s.seats {
				if remaining.Human {
					s.hostID = remaining.ID
					break
				}
			}
		}
		s.broadcastLobby()
		return nil
	}
	return ErrNotSeated
}

var botNames = []string{
	"Ada", "Boris", "Clara", "Dmitri", "Elsa",
	"Franz", "Greta", "Heinz", "Ilse", "Jonas",
}

// AddBots fills n seats with automated participants, each with a random
// personality and difficulty.
func (s *Session) AddBots(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.eng != nil {
		return ErrAlreadyStarted
	}
	if len(s.seats)+n > models.MaxPlayers {
		return ErrSessionFull
	}

	personalities := []ai.Personality{ai.PersonalityCautious, ai.PersonalityBold}
	difficulties := []ai.Difficulty{ai.DifficultyBeginner, ai.DifficultyIntermediate, ai.DifficultyExpert}
	for i := 0; i < n; i++ {
		name := s.uniqueBotName()
		s.seats = append(s.seats, Seat{
			ID:          uuid.NewString(),
			Name:        name,
			Human:       false,
			Personality: personalities[s.rng.Intn(len(personalities))],
			Difficulty:  difficulties[s.rng.Intn(len(difficulties))],
		})
	}
	s.broadcastLobby()
	return nil
}

func (s *Session) uniqueBotName() string {
	base := botNames[s.rng.Intn(len(botNames))]
	name := base + " (bot)"
	for suffix := 2; ; suffix++ {
		taken := false
		for _, seat := range s.seats {
			if seat.Name == name {
				taken = true
				break
			}
		}
		if !taken {
			return name
		}
		name = fmt.Sprintf("%s %d (bot)", base, suffix)
	}
}

// Roster returns the current seats.
func (s *Session) Roster() []Seat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Seat, len(s.seats))
	copy(out, s.seats)
	return out
}

// Joinable reports whether the session still accepts participants.
func (s *Session) Joinable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng == nil && len(s.seats) < models.MaxPlayers
}

// Start assembles the game aggregate from the roster, seeds the automated
// agents, and fires the engine's start action.
func (s *Session) Start(actorID string) (*engine.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.eng != nil {
		return nil, ErrAlreadyStarted
	}
	if !s.seated(actorID) {
		return nil, ErrNotSeated
	}

	roster := make([]models.RosterEntry, len(s.seats))
	for i, seat := range s.seats {
		roster[i] = models.RosterEntry{ID: seat.ID, Name: seat.Name, Human: seat.Human}
	}
	game, err := models.NewGame(uuid.NewString(), roster, s.rng)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrInvalidAction, err)
	}

	s.game = game
	s.eng = engine.New(game)

	res, err := s.eng.StartGame(actorID)
	if err != nil {
		s.game = nil
		s.eng = nil
		return nil, err
	}
	s.registerAgents()
	s.afterMutation()
	return res, nil
}

// registerAgents builds one agent per automated seat. Fascist-team agents
// are seeded with their teammates, matching what those roles learn during
// role reveal; hitler learns the team only in five and six player games.
func (s *Session) registerAgents() {
	var team []string
	for _, p := range s.game.Players {
		if p.IsFascistTeam() {
			team = append(team, p.ID)
		}
	}

	tunables := ai.Tunables{
		AvoidEarlyHitler: s.opts.AvoidEarlyHitler,
		ErrorRate:        s.opts.BotErrorRate,
	}
	for _, seat := range s.seats {
		if seat.Human {
			continue
		}
		p := s.game.Player(seat.ID)

		var known []string
		switch {
		case p.Role == models.RoleFascist:
			known = teammatesOf(team, seat.ID)
		case p.Role == models.RoleHitler && len(s.game.Players) <= 6:
			known = teammatesOf(team, seat.ID)
		}

		s.director.Register(ai.NewAgent(
			seat.ID, seat.Name, p.Role,
			seat.Personality, seat.Difficulty,
			tunables, known, s.rng,
		))
	}
}

func teammatesOf(team []string, selfID string) []string {
	out := make([]string, 0, len(team))
	for _, id := range team {
		if id != selfID {
			out = append(out, id)
		}
	}
	return out
}

func (s *Session) seated(playerID string) bool {
	for _, seat := range s.seats {
		if seat.ID == playerID {
			return true
		}
	}
	return false
}

// AcknowledgeRole records a role-reveal confirmation.
func (s *Session) AcknowledgeRole(playerID string) (*engine.Result, error) {
	return s.act(func() (*engine.Result, error) {
		return s.eng.AcknowledgeRole(playerID)
	})
}

// Nominate proposes a chancellor.
func (s *Session) Nominate(presidentID, chancellorID string) (*engine.Result, error) {
	return s.act(func() (*engine.Result, error) {
		return s.eng.NominateChancellor(presidentID, chancellorID)
	})
}

// Vote records a ballot.
func (s *Session) Vote(voterID string, vote bool) (*engine.Result, error) {
	return s.act(func() (*engine.Result, error) {
		return s.eng.SubmitVote(voterID, vote)
	})
}

// Discard is the president's legislative choice.
func (s *Session) Discard(presidentID string, policy models.PolicyType) (*engine.Result, error) {
	return s.act(func() (*engine.Result, error) {
		return s.eng.DiscardPolicy(presidentID, policy)
	})
}

// Enact is the chancellor's legislative choice.
func (s *Session) Enact(chancellorID string, policy models.PolicyType) (*engine.Result, error) {
	return s.act(func() (*engine.Result, error) {
		return s.eng.EnactPolicy(chancellorID, policy)
	})
}

// ExecutePower runs the pending presidential power. The investigation
// result additionally feeds the investigating bot's memory, the one private
// input agents receive.
func (s *Session) ExecutePower(presidentID string, power models.PresidentialPower, targetID string) (*engine.Result, error) {
	return s.act(func() (*engine.Result, error) {
		res, err := s.runPower(presidentID, power, targetID)
		if err != nil {
			return nil, err
		}
		if power == models.PowerInvestigate {
			s.feedInvestigation(presidentID, res)
		}
		return res, nil
	})
}

func (s *Session) runPower(presidentID string, power models.PresidentialPower, targetID string) (*engine.Result, error) {
	switch power {
	case models.PowerInvestigate:
		return s.eng.InvestigateLoyalty(presidentID, targetID)
	case models.PowerSpecialElection:
		return s.eng.CallSpecialElection(presidentID, targetID)
	case models.PowerPolicyPeek:
		return s.eng.PolicyPeek(presidentID)
	case models.PowerExecution:
		return s.eng.ExecutePlayer(presidentID, targetID)
	default:
		return nil, fmt.Errorf("%w: unknown power %q", engine.ErrInvalidAction, power)
	}
}

func (s *Session) feedInvestigation(presidentID string, res *engine.Result) {
	agent := s.director.Agent(presidentID)
	if agent == nil {
		return
	}
	targetID, _ := res.Data["target_id"].(string)
	if party, ok := res.Data["party"].(models.Party); ok && targetID != "" {
		agent.Memory.RecordInvestigation(targetID, party)
	}
}

// act wraps one engine mutation: serialize, touch the activity clock, run,
// then relay and re-dispatch on success.
func (s *Session) act(fn func() (*engine.Result, error)) (*engine.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.eng == nil {
		return nil, ErrNotStarted
	}
	res, err := fn()
	if err != nil {
		return nil, err
	}
	s.afterMutation()
	return res, nil
}

// afterMutation is the explicit post-mutation hook: broadcast the events the
// mutation appended, feed them to the bot memories, then let eligible bots
// schedule their next decisions. Runs under s.mu.
func (s *Session) afterMutation() {
	fresh := s.eng.EventsSince(s.relayCursor)
	s.relayCursor += len(fresh)

	for _, ev := range fresh {
		payload, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("event marshal failed", zap.Error(err))
			continue
		}
		s.hub.Broadcast(payload)
	}

	s.director.Observe(fresh)
	if !s.eng.IsGameOver() {
		s.director.Dispatch(s.ctx, s.game, s.eng.AvailableActions)
	}
}

// SubmitDecision delivers a scheduled bot decision through the same entry
// points humans use. The decision was computed against a possibly stale
// snapshot; the engine re-validates and a rejection is expected, not fatal.
func (s *Session) SubmitDecision(playerID string, dec ai.Decision) {
	var err error
	switch dec.Action {
	case engine.ActionAcknowledgeRole:
		_, err = s.AcknowledgeRole(playerID)
	case engine.ActionNominate:
		_, err = s.Nominate(playerID, dec.TargetID)
	case engine.ActionVote:
		_, err = s.Vote(playerID, dec.Vote)
	case engine.ActionDiscardPolicy:
		_, err = s.Discard(playerID, dec.Policy)
	case engine.ActionEnactPolicy:
		_, err = s.Enact(playerID, dec.Policy)
	case engine.ActionInvestigate:
		_, err = s.ExecutePower(playerID, models.PowerInvestigate, dec.TargetID)
	case engine.ActionSpecialElection:
		_, err = s.ExecutePower(playerID, models.PowerSpecialElection, dec.TargetID)
	case engine.ActionPolicyPeek:
		_, err = s.ExecutePower(playerID, models.PowerPolicyPeek, "")
	case engine.ActionExecutePlayer:
		_, err = s.ExecutePower(playerID, models.PowerExecution, dec.TargetID)
	default:
		err = fmt.Errorf("%w: %q", engine.ErrInvalidAction, dec.Action)
	}

	if err == nil {
		return
	}
	if engine.IsRuleViolation(err) || errors.Is(err, ErrNotStarted) {
		// The game moved on while the bot was thinking.
		s.logger.Debug("stale bot decision rejected",
			zap.String("player_id", playerID),
			zap.String("action", dec.Action),
			zap.Error(err),
		)
		return
	}
	s.logger.Error("bot decision failed",
		zap.String("player_id", playerID),
		zap.String("action", dec.Action),
		zap.Error(err),
	)
}

// chatMessage is the broadcast-only chat payload. Chat is not part of the
// event log.
type chatMessage struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	PlayerID  string    `json:"player_id"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
}

// Chat relays a participant's message to all subscribers.
func (s *Session) Chat(playerID, message string) error {
	s.mu.Lock()
	name := ""
	for _, seat := range s.seats {
		if seat.ID == playerID {
			name = seat.Name
			break
		}
	}
	s.touch()
	s.mu.Unlock()

	if name == "" {
		return ErrNotSeated
	}
	payload, err := json.Marshal(chatMessage{
		Type:      "chat_message",
		Timestamp: time.Now(),
		PlayerID:  playerID,
		Name:      name,
		Message:   message,
	})
	if err != nil {
		return err
	}
	s.hub.Broadcast(payload)
	return nil
}

// RelayChat lets the bot director speak through the same channel.
func (s *Session) RelayChat(playerID, message string) {
	if err := s.Chat(playerID, message); err != nil {
		s.logger.Debug("bot chat dropped", zap.Error(err))
	}
}

// AvailableActions answers the per-participant action query. Before the
// game starts every seated participant may only start it.
func (s *Session) AvailableActions(playerID string) engine.Actions {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.eng == nil {
		if s.seated(playerID) {
			return engine.Actions{Actions: []string{engine.ActionStartGame}}
		}
		return engine.Actions{}
	}
	return s.eng.AvailableActions(playerID)
}

// History returns the event log from the given cursor.
func (s *Session) History(cursor int) []engine.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eng == nil {
		return nil
	}
	return s.eng.EventsSince(cursor)
}

// PlayerView is one roster row as a given viewer sees it: roles are
// redacted unless the viewer is entitled to them.
type PlayerView struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	IsHuman bool        `json:"is_human"`
	IsAlive bool        `json:"is_alive"`
	Role    models.Role `json:"role,omitempty"`
}

// StateView is the full state query answer for one viewer.
type StateView struct {
	Code    string                `json:"code"`
	Started bool                  `json:"started"`
	HostID  string                `json:"host_id,omitempty"`
	Players []PlayerView          `json:"players"`
	State   *engine.StateSnapshot `json:"state,omitempty"`
	Winner  models.Party          `json:"winner,omitempty"`
}

// State answers the state query with per-viewer redaction: everyone sees
// their own role, the fascist team sees itself (hitler included, and hitler
// sees the team in five and six player games), and every role is revealed
// once the game is over.
func (s *Session) State(viewerID string) StateView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := StateView{Code: s.Code, HostID: s.hostID}
	if s.eng == nil {
		for _, seat := range s.seats {
			view.Players = append(view.Players, PlayerView{
				ID:      seat.ID,
				Name:    seat.Name,
				IsHuman: seat.Human,
				IsAlive: true,
			})
		}
		return view
	}

	view.Started = true
	snap := s.eng.Snapshot()
	view.State = &snap
	if winner, over := s.eng.Winner(); over {
		view.Winner = winner
	}

	viewer := s.game.Player(viewerID)
	for _, p := range s.game.Players {
		row := PlayerView{ID: p.ID, Name: p.Name, IsHuman: p.IsHuman, IsAlive: p.IsAlive}
		if s.roleVisible(viewer, p) {
			row.Role = p.Role
		}
		view.Players = append(view.Players, row)
	}
	return view
}

func (s *Session) roleVisible(viewer, subject *models.Player) bool {
	if s.eng.IsGameOver() {
		return true
	}
	if viewer == nil {
		return false
	}
	if viewer.ID == subject.ID {
		return true
	}
	if !subject.IsFascistTeam() {
		return false
	}
	if viewer.Role == models.RoleFascist {
		return true
	}
	return viewer.Role == models.RoleHitler && len(s.game.Players) <= 6
}

// lobbyUpdate is the broadcast payload for pre-game roster changes.
type lobbyUpdate struct {
	Type    string `json:"type"`
	Players []Seat `json:"players"`
	HostID  string `json:"host_id"`
}

func (s *Session) broadcastLobby() {
	payload, err := json.Marshal(lobbyUpdate{
		Type:    "lobby_updated",
		Players: s.seats,
		HostID:  s.hostID,
	})
	if err != nil {
		s.logger.Error("lobby marshal failed", zap.Error(err))
		return
	}
	s.hub.Broadcast(payload)
}
