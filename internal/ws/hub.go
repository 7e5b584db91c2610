// Package ws relays a session's event feed to websocket subscribers. The
// hub is a boundary component: it never interprets events, it fans the
// already-serialized payloads out verbatim.
package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// sendBuffer bounds the per-client queue; a client that falls this far
	// behind gets dropped instead of blocking the session.
	sendBuffer = 32

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client is one subscriber connection.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	playerID string

	// send is never closed: a broadcast racing a disconnect must not hit a
	// closed channel. The write pump stops on done instead.
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *Client) shutdown() {
	c.once.Do(func() {
		close(c.done)
	})
}

// Hub fans messages out to every subscriber of one session.
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[*Client]bool
	closed  bool
}

// NewHub wires an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*Client]bool),
	}
}

// Subscribe attaches a connection and starts its pumps. The read pump only
// drains control frames; all game input arrives over HTTP.
func (h *Hub) Subscribe(conn *websocket.Conn, playerID string) *Client {
	c := &Client{
		hub:      h,
		conn:     conn,
		playerID: playerID,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return nil
	}
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("subscriber connected",
		zap.String("player_id", playerID),
		zap.Int("total", total),
	)

	go c.writePump()
	go c.readPump()
	return c
}

func (h *Hub) unsubscribe(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()
	c.shutdown()

	h.logger.Debug("subscriber disconnected",
		zap.String("player_id", c.playerID),
		zap.Int("total", total),
	)
}

// Broadcast queues a payload for every subscriber. Channels are collected
// under the lock and written outside it; a subscriber with a full queue is
// dropped rather than stalling the broadcast.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("dropping slow subscriber", zap.String("player_id", c.playerID))
			h.unsubscribe(c)
		}
	}
}

// Close disconnects all subscribers and rejects future ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		delete(h.clients, c)
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		c.shutdown()
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unsubscribe(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
