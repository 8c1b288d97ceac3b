package notify

import (
	"encoding/json"
	"log"
	"sync"
)

// Event is the frame pushed to a connected client.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Session is one live connection for one user. Frames are handed to the
// session over Send; the websocket write pump drains it.
type Session struct {
	UserID string
	Send   chan []byte
}

// Hub tracks at most one live session per user and pushes events to them.
// Delivery is best-effort: events for absent or slow sessions are dropped,
// never queued for redelivery.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*Session)}
}

// Connect registers a session for userID, replacing any previous one. The
// replaced session's channel is closed so its write pump exits.
func (h *Hub) Connect(userID string) *Session {
	session := &Session{
		UserID: userID,
		Send:   make(chan []byte, 16),
	}

	h.mu.Lock()
	if old, ok := h.sessions[userID]; ok {
		close(old.Send)
	}
	h.sessions[userID] = session
	h.mu.Unlock()

	return session
}

// Disconnect removes the session if it is still the live one for its user.
func (h *Hub) Disconnect(session *Session) {
	h.mu.Lock()
	if current, ok := h.sessions[session.UserID]; ok && current == session {
		delete(h.sessions, session.UserID)
		close(session.Send)
	}
	h.mu.Unlock()
}

// IsConnected reports whether userID has a live session.
func (h *Hub) IsConnected(userID string) bool {
	h.mu.RLock()
	_, ok := h.sessions[userID]
	h.mu.RUnlock()
	return ok
}

// Emit pushes one event to userID's session. Returns false when the event was
// dropped (no session, or the session's buffer is full).
func (h *Hub) Emit(userID, event string, data interface{}) bool {
	frame, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		log.Println("[NOTIFY] [ERROR] marshal failed:", err)
		return false
	}

	h.mu.RLock()
	session, ok := h.sessions[userID]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	select {
	case session.Send <- frame:
		return true
	default:
		log.Println("[NOTIFY] [WARN] dropping event for slow session:", userID, event)
		return false
	}
}
