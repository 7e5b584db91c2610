package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/stefjnl/secret-hitler-online-game/internal/models"
)

// HandleStart assembles the game from the roster and begins role reveal.
func (ctx *Context) HandleStart(w http.ResponseWriter, r *http.Request) {
	s, ok := ctx.sessionFrom(w, r)
	if !ok {
		return
	}
	var req actorRequest
	if !readJSON(w, r, &req) {
		return
	}
	res, err := s.Start(req.PlayerID)
	if err != nil {
		ctx.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleAcknowledgeRole records that the caller has seen their role.
func (ctx *Context) HandleAcknowledgeRole(w http.ResponseWriter, r *http.Request) {
	s, ok := ctx.sessionFrom(w, r)
	if !ok {
		return
	}
	var req actorRequest
	if !readJSON(w, r, &req) {
		return
	}
	res, err := s.AcknowledgeRole(req.PlayerID)
	if err != nil {
		ctx.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type targetRequest struct {
	PlayerID string `json:"player_id"`
	TargetID string `json:"target_id"`
}

// HandleNominate proposes a chancellor.
func (ctx *Context) HandleNominate(w http.ResponseWriter, r *http.Request) {
	s, ok := ctx.sessionFrom(w, r)
	if !ok {
		return
	}
	var req targetRequest
	if !readJSON(w, r, &req) {
		return
	}
	res, err := s.Nominate(req.PlayerID, req.TargetID)
	if err != nil {
		ctx.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type voteRequest struct {
	PlayerID string `json:"player_id"`
	Vote     bool   `json:"vote"`
}

// HandleVote records a ballot.
func (ctx *Context) HandleVote(w http.ResponseWriter, r *http.Request) {
	s, ok := ctx.sessionFrom(w, r)
	if !ok {
		return
	}
	var req voteRequest
	if !readJSON(w, r, &req) {
		return
	}
	res, err := s.Vote(req.PlayerID, req.Vote)
	if err != nil {
		ctx.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type policyRequest struct {
	PlayerID string            `json:"player_id"`
	Policy   models.PolicyType `json:"policy"`
}

// HandleDiscard is the president's legislative choice.
func (ctx *Context) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	s, ok := ctx.sessionFrom(w, r)
	if !ok {
		return
	}
	var req policyRequest
	if !readJSON(w, r, &req) {
		return
	}
	res, err := s.Discard(req.PlayerID, req.Policy)
	if err != nil {
		ctx.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleEnact is the chancellor's legislative choice.
func (ctx *Context) HandleEnact(w http.ResponseWriter, r *http.Request) {
	s, ok := ctx.sessionFrom(w, r)
	if !ok {
		return
	}
	var req policyRequest
	if !readJSON(w, r, &req) {
		return
	}
	res, err := s.Enact(req.PlayerID, req.Policy)
	if err != nil {
		ctx.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type powerRequest struct {
	PlayerID string                   `json:"player_id"`
	Power    models.PresidentialPower `json:"power"`
	TargetID string                   `json:"target_id,omitempty"`
}

// HandlePower runs the pending presidential power. The revealed party of an
// investigation appears only in this response, never in the broadcast feed.
func (ctx *Context) HandlePower(w http.ResponseWriter, r *http.Request) {
	s, ok := ctx.sessionFrom(w, r)
	if !ok {
		return
	}
	var req powerRequest
	if !readJSON(w, r, &req) {
		return
	}
	res, err := s.ExecutePower(req.PlayerID, req.Power, req.TargetID)
	if err != nil {
		ctx.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleState answers the state query, redacted for the viewer given by
// the player_id query parameter.
func (ctx *Context) HandleState(w http.ResponseWriter, r *http.Request) {
	s, ok := ctx.sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.State(r.URL.Query().Get("player_id")))
}

// HandleAvailableActions answers the per-participant action query.
func (ctx *Context) HandleAvailableActions(w http.ResponseWriter, r *http.Request) {
	s, ok := ctx.sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.AvailableActions(r.URL.Query().Get("player_id")))
}

// HandleHistory returns the event log from an optional cursor.
func (ctx *Context) HandleHistory(w http.ResponseWriter, r *http.Request) {
	s, ok := ctx.sessionFrom(w, r)
	if !ok {
		return
	}
	cursor := 0
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cursor"})
			return
		}
		cursor = parsed
	}
	events := s.History(cursor)
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"cursor": cursor + len(events),
	})
}

type chatRequest struct {
	PlayerID string `json:"player_id"`
	Message  string `json:"message"`
}

// HandleChat relays a chat message to all subscribers. Chat is broadcast
// only; it is not part of the event log.
func (ctx *Context) HandleChat(w http.ResponseWriter, r *http.Request) {
	s, ok := ctx.sessionFrom(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if !readJSON(w, r, &req) {
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}
	if err := s.Chat(req.PlayerID, req.Message); err != nil {
		ctx.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
