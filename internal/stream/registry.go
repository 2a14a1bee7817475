// Package stream serves the debug websocket: a client asks for a run and
// receives each pipeline stage as soon as it completes.
package stream

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Registry tracks the open stream of every user tab. A tab owns at most
// one stream; opening a second one closes the first.
type Registry struct {
	mu     sync.RWMutex
	active map[string]map[string]*websocket.Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		active: make(map[string]map[string]*websocket.Conn),
	}
}

// Active returns the open connection for a user and session.
func (m *Registry) Active(userID, sessionID string) *websocket.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sessions, ok := m.active[userID]; ok {
		return sessions[sessionID]
	}
	return nil
}

// Register records conn for a user/session, closing any connection it replaces.
func (m *Registry) Register(userID, sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[userID]; !exists {
		m.active[userID] = make(map[string]*websocket.Conn)
	}

	if existing, exists := m.active[userID][sessionID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusPolicyViolation, "stream replaced")
	}

	m.active[userID][sessionID] = conn
	slog.Info("Debug stream registered", "user_id", userID, "session_id", sessionID)
}

// Unregister removes conn if it is still the current one for the user/session.
func (m *Registry) Unregister(userID, sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sessions, ok := m.active[userID]; ok {
		if current, exists := sessions[sessionID]; exists && current == conn {
			delete(sessions, sessionID)
			if len(sessions) == 0 {
				delete(m.active, userID)
			}
			slog.Info("Debug stream unregistered", "user_id", userID, "session_id", sessionID)
		}
	}
}

// CloseAll closes every open stream, for shutdown.
func (m *Registry) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for userID, sessions := range m.active {
		for sid, conn := range sessions {
			_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
			slog.Debug("Debug stream closed", "user_id", userID, "session_id", sid)
		}
	}
	m.active = make(map[string]map[string]*websocket.Conn)
}

// Count returns the number of open streams.
func (m *Registry) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, sessions := range m.active {
		n += len(sessions)
	}
	return n
}
