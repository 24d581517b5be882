package ws

import (
	"sync"

	"github.com/Teek0505/TransMedix/internal/platform/logger"

	"github.com/gorilla/websocket"
)

// Hub mantiene los rooms por sesión y hace broadcast de eventos.
// Los services lo usan vía sus interfaces Notifier.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string][]*client
	log   logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		rooms: make(map[string][]*client),
		log:   log,
	}
}

type client struct {
	conn   *websocket.Conn
	userID string

	// gorilla no permite escrituras concurrentes sobre la misma conn.
	writeMu sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Publish manda un evento a todos los clientes del room de la sesión.
// Best-effort: un write fallido se loguea y no corta el resto.
func (h *Hub) Publish(sessionID, event string, payload any) {
	h.mu.RLock()
	clients := make([]*client, len(h.rooms[sessionID]))
	copy(clients, h.rooms[sessionID])
	h.mu.RUnlock()

	msg := envelope{Type: event, Data: payload}
	for _, c := range clients {
		if err := c.writeJSON(msg); err != nil {
			h.log.Warn("ws write failed", map[string]any{
				"session_id": sessionID, "event": event, "err": logger.Err(err),
			})
		}
	}
}

// RoomSize devuelve cuántos clientes hay conectados al room.
func (h *Hub) RoomSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

func (h *Hub) join(sessionID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rooms[sessionID] = append(h.rooms[sessionID], c)
}

func (h *Hub) leave(sessionID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.rooms[sessionID]
	for i, existing := range clients {
		if existing == c {
			h.rooms[sessionID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(h.rooms[sessionID]) == 0 {
		delete(h.rooms, sessionID)
	}
}
