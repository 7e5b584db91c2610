package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Join codes are unguessable; the socket only carries what the state
	// query already exposes.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebsocket upgrades the connection and subscribes it to the
// session's event feed. The socket is outbound only; actions go over HTTP.
func (ctx *Context) HandleWebsocket(w http.ResponseWriter, r *http.Request) {
	s, ok := ctx.sessionFrom(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		ctx.Logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	s.Hub().Subscribe(conn, r.URL.Query().Get("player_id"))
}
