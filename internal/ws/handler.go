package ws

import (
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/feedback-hub/helpdesk/internal/auth"
)

// Close codes sent before dropping an unauthenticated connection.
const (
	closeMissingToken = 4001
	closeInvalidToken = 4002
)

type connectedAck struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// Handler upgrades notification stream connections and parks them on the hub.
type Handler struct {
	hub    *Hub
	tokens *auth.TokenManager
	logger *zap.Logger
}

// NewHandler builds the websocket endpoint handler.
func NewHandler(hub *Hub, tokens *auth.TokenManager, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, tokens: tokens, logger: logger}
}

// Upgrade gates plain HTTP requests before the websocket handshake.
func (h *Handler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Serve authenticates the session via the token query parameter, then keeps
// the connection registered until the client goes away. Browsers cannot set
// headers on websocket handshakes, hence the query parameter.
func (h *Handler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		token := conn.Query("token")
		if token == "" {
			h.closeWith(conn, closeMissingToken, "missing token")
			return
		}

		claims, err := h.tokens.ParseToken(token)
		if err != nil {
			h.closeWith(conn, closeInvalidToken, "invalid token")
			return
		}

		ack, err := json.Marshal(connectedAck{Type: "connected", UserID: claims.UserID})
		if err == nil {
			// Ack goes out before registration so it is always the first frame.
			if err := conn.WriteMessage(websocket.TextMessage, ack); err != nil {
				conn.Close()
				return
			}
		}

		client := NewClient(claims.UserID, conn)
		h.hub.Register(client)
		defer h.hub.Unregister(client)

		// Inbound frames are not part of the protocol; the read loop only
		// notices disconnects.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}

func (h *Handler) closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		h.logger.Debug("ws close write failed", zap.Error(err))
	}
	conn.Close()
}
