// Package handlers is the HTTP JSON boundary: session directory, game
// action endpoints, state queries, chat relay and the websocket upgrade.
// It maps engine error kinds to status codes and does nothing else; all
// game logic lives behind the session layer.
package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/stefjnl/secret-hitler-online-game/internal/session"
)

// Context carries the handler dependencies.
type Context struct {
	Logger  *zap.Logger
	Store   *session.Store
	BaseURL string
}

// Routes builds the full route table.
func (ctx *Context) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/sessions", ctx.HandleCreateSession)
	mux.HandleFunc("GET /api/sessions", ctx.HandleListSessions)
	mux.HandleFunc("POST /api/sessions/{code}/join", ctx.HandleJoinSession)
	mux.HandleFunc("POST /api/sessions/{code}/leave", ctx.HandleLeaveSession)
	mux.HandleFunc("POST /api/sessions/{code}/bots", ctx.HandleAddBots)
	mux.HandleFunc("GET /api/sessions/{code}/qr", ctx.HandleJoinQR)

	mux.HandleFunc("POST /api/sessions/{code}/start", ctx.HandleStart)
	mux.HandleFunc("POST /api/sessions/{code}/ack", ctx.HandleAcknowledgeRole)
	mux.HandleFunc("POST /api/sessions/{code}/nominate", ctx.HandleNominate)
	mux.HandleFunc("POST /api/sessions/{code}/vote", ctx.HandleVote)
	mux.HandleFunc("POST /api/sessions/{code}/discard", ctx.HandleDiscard)
	mux.HandleFunc("POST /api/sessions/{code}/enact", ctx.HandleEnact)
	mux.HandleFunc("POST /api/sessions/{code}/power", ctx.HandlePower)

	mux.HandleFunc("GET /api/sessions/{code}/state", ctx.HandleState)
	mux.HandleFunc("GET /api/sessions/{code}/actions", ctx.HandleAvailableActions)
	mux.HandleFunc("GET /api/sessions/{code}/history", ctx.HandleHistory)
	mux.HandleFunc("POST /api/sessions/{code}/chat", ctx.HandleChat)

	mux.HandleFunc("GET /ws/{code}", ctx.HandleWebsocket)

	return mux
}
