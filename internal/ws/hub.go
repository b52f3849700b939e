package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Conn is the subset of the websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

const textMessage = 1

// sendBufferSize bounds the per-client outbound queue. A client that stops
// reading gets its messages dropped, not the hub blocked.
const sendBufferSize = 16

// Client is one live websocket session owned by a user. A user may hold
// several clients at once (multiple tabs, devices).
type Client struct {
	UserID string

	conn Conn
	send chan []byte
	once sync.Once
}

// NewClient wraps a connection for hub registration.
func NewClient(userID string, conn Conn) *Client {
	return &Client{
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}
}

// writePump drains the send queue onto the wire. It exits when the queue is
// closed, closing the underlying connection.
func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(textMessage, msg); err != nil {
			return
		}
	}
}

// close shuts the send queue exactly once.
func (c *Client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub tracks live websocket sessions keyed by user and fans persisted
// notifications out to them. All delivery is best-effort on top of the
// durable notification row.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	logger  *zap.Logger
}

// NewHub builds an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds the client to the user's session set and starts its writer.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	h.logger.Debug("ws client registered", zap.String("userId", c.UserID))
}

// Unregister removes the client and releases its resources. Safe to call
// more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.UserID]; ok {
		if _, present := set[c]; present {
			delete(set, c)
			if len(set) == 0 {
				delete(h.clients, c.UserID)
			}
		}
	}
	h.mu.Unlock()

	c.close()
}

// SendToUser pushes a payload to every live session of the user. The
// envelope is serialized once and shared by all sessions. Slow sessions
// with a full queue have the message dropped.
func (h *Hub) SendToUser(userID string, envelope any) {
	data, err := json.Marshal(envelope)
	if err != nil {
		h.logger.Error("ws envelope encode failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("ws send queue full, dropping message",
				zap.String("userId", userID))
		}
	}
}

// BroadcastToAll pushes a payload to every connected session.
func (h *Hub) BroadcastToAll(envelope any) {
	data, err := json.Marshal(envelope)
	if err != nil {
		h.logger.Error("ws envelope encode failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, set := range h.clients {
		for c := range set {
			select {
			case c.send <- data:
			default:
			}
		}
	}
}

// ConnectionCount reports the number of live sessions for the user.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
