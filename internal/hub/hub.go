// Package hub fans events out to every live connection a user has open.
// Delivery is best-effort: no persistence, no acknowledgment, at-most-once.
package hub

import "sync"

// Conn is one live subscriber connection. *websocket.Conn satisfies it.
type Conn interface {
	WriteJSON(v interface{}) error
}

// Hub is an owned registry of connections keyed by username. All methods
// are safe for concurrent use; writes to connections are serialized so
// interleaved broadcasts cannot corrupt a socket.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[Conn]struct{}
}

func New() *Hub {
	return &Hub{rooms: make(map[string]map[Conn]struct{})}
}

// Join registers a connection under the user's key.
func (h *Hub) Join(user string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[user]
	if !ok {
		room = make(map[Conn]struct{})
		h.rooms[user] = room
	}
	room[c] = struct{}{}
}

// Leave unregisters a connection. Safe to call for a connection that was
// already removed.
func (h *Hub) Leave(user string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[user]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, user)
	}
}

// Broadcast delivers event to every connection registered for user. A
// connection that fails to receive is pruned; the broadcast itself never
// fails.
func (h *Hub) Broadcast(user string, event interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[user]
	if !ok {
		return
	}
	for c := range room {
		if err := c.WriteJSON(event); err != nil {
			delete(room, c)
		}
	}
	if len(room) == 0 {
		delete(h.rooms, user)
	}
}

// Count reports how many connections a user currently has.
func (h *Hub) Count(user string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[user])
}
