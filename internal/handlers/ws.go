package handlers

import (
	"encoding/binary"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/nasmini/backend/internal/hub"
)

// closeUnauthenticated is sent when the handshake carries no valid session.
const closeUnauthenticated = 4401

// writeWait bounds a single push. Broadcasts run under the hub lock, so a
// subscriber that stops reading must time out and be pruned instead of
// stalling every other broadcast.
const writeWait = 5 * time.Second

type liveConn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
}

// timedConn arms a write deadline before every hub push.
type timedConn struct {
	conn liveConn
}

func (c timedConn) WriteJSON(v interface{}) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

type WSHandler struct {
	hub *hub.Hub
}

func NewWSHandler(h *hub.Hub) *WSHandler {
	return &WSHandler{hub: h}
}

// Upgrade gates the websocket route to actual upgrade requests.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Live registers the connection with the hub for the session's user and
// then just drains keepalives; the server side only pushes.
func (h *WSHandler) Live(conn *websocket.Conn) {
	username, _ := conn.Locals("username").(string)
	if username == "" {
		conn.WriteControl(websocket.CloseMessage, closePayload(closeUnauthenticated, "session required"), time.Now().Add(time.Second))
		conn.Close()
		return
	}

	sub := timedConn{conn: conn}
	h.hub.Join(username, sub)
	defer func() {
		h.hub.Leave(username, sub)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// closePayload builds a close frame body: 2-byte big-endian code + reason.
func closePayload(code int, reason string) []byte {
	p := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(p, uint16(code))
	copy(p[2:], reason)
	return p
}
