package ws

import (
	"sync"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
)

// Hub tracks the live websocket sessions by connection id.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *logging.Logger
}

func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Register adds a session. A session already registered under the same
// connection id is displaced; Unregister compares identity, so the displaced
// session's own teardown cannot remove its replacement.
func (h *Hub) Register(session *Session) {
	if session == nil {
		return
	}
	h.mu.Lock()
	prev := h.sessions[session.ID()]
	h.sessions[session.ID()] = session
	h.mu.Unlock()

	if prev != nil && prev != session && h.logger != nil {
		h.logger.WarnTag("WebSocket", "displaced live session for connection %s", session.ID())
	}
}

// Unregister removes the session if it is still the one registered under
// its connection id.
func (h *Hub) Unregister(session *Session) {
	if session == nil {
		return
	}
	h.mu.Lock()
	if h.sessions[session.ID()] == session {
		delete(h.sessions, session.ID())
	}
	h.mu.Unlock()
}

// Get returns the session registered for the connection id, if any.
func (h *Hub) Get(id string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	session, ok := h.sessions[id]
	return session, ok
}

// CloseAll terminates every live session. Used on server shutdown.
func (h *Hub) CloseAll(reason error) {
	if reason == nil {
		reason = ErrSessionShutdown
	}

	h.mu.Lock()
	live := make([]*Session, 0, len(h.sessions))
	for id, session := range h.sessions {
		live = append(live, session)
		delete(h.sessions, id)
	}
	h.mu.Unlock()

	for _, session := range live {
		session.Close(reason)
	}
}

// Count reports the number of live websocket connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
