package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

type createSessionRequest struct {
	Name string `json:"name"`
	Bots int    `json:"bots"`
}

// HandleCreateSession opens a new session with the caller as host,
// optionally pre-filling automated seats.
func (ctx *Context) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !readJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	s, hostID := ctx.Store.Create(req.Name)
	if req.Bots > 0 {
		if err := s.AddBots(req.Bots); err != nil {
			ctx.Store.Delete(s.Code)
			ctx.writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"code":      s.Code,
		"player_id": hostID,
	})
}

type sessionSummary struct {
	Code      string    `json:"code"`
	Players   int       `json:"players"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleListSessions lists sessions still accepting participants.
func (ctx *Context) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := ctx.Store.List()
	out := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionSummary{
			Code:      s.Code,
			Players:   len(s.Roster()),
			CreatedAt: s.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type joinRequest struct {
	Name string `json:"name"`
}

// HandleJoinSession seats a participant by join code.
func (ctx *Context) HandleJoinSession(w http.ResponseWriter, r *http.Request) {
	s, ok := ctx.sessionFrom(w, r)
	if !ok {
		return
	}
	var req joinRequest
	if !readJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	playerID, err := s.Join(req.Name)
	if err != nil {
		ctx.writeError(w, err)
		return
	}
	ctx.Logger.Info("player joined",
		zap.String("session", s.Code),
		zap.String("name", req.Name),
	)
	writeJSON(w, http.StatusOK, map[string]string{"player_id": playerID})
}

type actorRequest struct {
	PlayerID string `json:"player_id"`
}

// HandleLeaveSession frees a seat before the game starts. The last human
// leaving deletes the session.
func (ctx *Context) HandleLeaveSession(w http.ResponseWriter, r *http.Request) {
	s, ok := ctx.sessionFrom(w, r)
	if !ok {
		return
	}
	var req actorRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := s.Leave(req.PlayerID); err != nil {
		ctx.writeError(w, err)
		return
	}

	humans := 0
	for _, seat := range s.Roster() {
		if seat.Human {
			humans++
		}
	}
	if humans == 0 {
		ctx.Store.Delete(s.Code)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

type addBotsRequest struct {
	Count int `json:"count"`
}

// HandleAddBots fills seats with automated participants.
func (ctx *Context) HandleAddBots(w http.ResponseWriter, r *http.Request) {
	s, ok := ctx.sessionFrom(w, r)
	if !ok {
		return
	}
	var req addBotsRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Count < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "count must be positive"})
		return
	}
	if err := s.AddBots(req.Count); err != nil {
		ctx.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": s.Roster()})
}

// HandleJoinQR renders the join link as a QR code PNG.
func (ctx *Context) HandleJoinQR(w http.ResponseWriter, r *http.Request) {
	s, ok := ctx.sessionFrom(w, r)
	if !ok {
		return
	}

	joinURL := ctx.BaseURL + "/join/" + s.Code
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		ctx.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
