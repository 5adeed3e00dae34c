// Package realtime pushes "state changed" notifications to websocket clients
// so the presentation layer knows when to re-read console state.
package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait   = 10 * time.Second
	readWait    = 5 * time.Minute
	sendBuffer  = 32
	maxReadSize = 4096
)

// Hub fans component notifications out to every connected client. A client
// whose buffer is full misses the notification rather than blocking Notify.
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan interface{}
}

// NewHub constructs an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{logger: logger.Named("realtime"), clients: make(map[*client]struct{})}
}

// Notify implements viewmodel.Notifier.
func (h *Hub) Notify(component string) {
	h.broadcast(StateChanged{Event: EventStateChanged, Component: component})
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve owns conn until the client disconnects. It blocks.
func (h *Hub) Serve(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan interface{}, sendBuffer)}
	h.register(c)
	defer h.unregister(c)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected", zap.Int("clients", total))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client disconnected", zap.Int("clients", total))
}

func (h *Hub) broadcast(msg interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		h.enqueue(c, msg)
	}
}

// enqueue must be called with h.mu held.
func (h *Hub) enqueue(c *client, msg interface{}) {
	select {
	case c.send <- msg:
	default:
		h.logger.Debug("client buffer full, dropping message")
	}
}

func (h *Hub) readPump(c *client) {
	c.conn.SetReadLimit(maxReadSize)
	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
		var msg RequestEnvelope
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("unexpected close", zap.Error(err))
			}
			return
		}

		var reply interface{}
		switch msg.Action {
		case ActionPing:
			reply = PongResponse{Event: EventPong}
		default:
			reply = ErrorResponse{Event: EventError, Error: "unknown action: " + string(msg.Action)}
		}
		h.mu.RLock()
		h.enqueue(c, reply)
		h.mu.RUnlock()
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			h.logger.Debug("write failed", zap.Error(err))
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
