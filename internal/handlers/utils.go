package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/stefjnl/secret-hitler-online-game/internal/engine"
	"github.com/stefjnl/secret-hitler-online-game/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

// writeError maps the engine's and session layer's error kinds to HTTP
// status codes. Rule violations are the caller's problem, not a system
// fault, so they are not logged above debug.
func (ctx *Context) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrUnknownSession):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidAction), errors.Is(err, engine.ErrInvalidTarget):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrNotActorsTurn), errors.Is(err, session.ErrNotSeated):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrWrongPhase),
		errors.Is(err, engine.ErrGameOver),
		errors.Is(err, session.ErrAlreadyStarted),
		errors.Is(err, session.ErrNotStarted),
		errors.Is(err, session.ErrNameTaken),
		errors.Is(err, session.ErrSessionFull):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		ctx.Logger.Error("request failed", zap.Error(err))
	} else {
		ctx.Logger.Debug("request rejected", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// sessionFrom resolves the {code} path segment.
func (ctx *Context) sessionFrom(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := ctx.Store.Get(r.PathValue("code"))
	if err != nil {
		ctx.writeError(w, err)
		return nil, false
	}
	return s, true
}
