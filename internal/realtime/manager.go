// Package realtime serves the game over websockets.
package realtime

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/coder/websocket"
)

// Conn is the part of a websocket connection the manager needs.
type Conn interface {
	Close(code websocket.StatusCode, reason string) error
}

// ConnectionManager tracks the live connection of every user tab.
type ConnectionManager struct {
	mu     sync.RWMutex
	active map[string]map[string]Conn
}

// NewConnectionManager creates a new connection manager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		active: make(map[string]map[string]Conn),
	}
}

// GetActive returns the active connection for a user and tab.
func (m *ConnectionManager) GetActive(userID, tabID string) Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tabs, ok := m.active[userID]; ok {
		return tabs[tabID]
	}
	return nil
}

// Count returns the number of live connections.
func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, tabs := range m.active {
		n += len(tabs)
	}
	return n
}

// Register adds a connection, closing any older connection of the same tab.
func (m *ConnectionManager) Register(userID, tabID string, conn Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[userID]; !exists {
		m.active[userID] = make(map[string]Conn)
	}

	if existing, exists := m.active[userID][tabID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "session replaced")
	}

	m.active[userID][tabID] = conn
	slog.Info("Game connection registered", "user_id", userID, "session_id", tabID)
}

// Unregister removes conn if it is still the tab's current connection.
func (m *ConnectionManager) Unregister(userID, tabID string, conn Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tabs, ok := m.active[userID]; ok {
		if current, exists := tabs[tabID]; exists && current == conn {
			delete(tabs, tabID)
			if len(tabs) == 0 {
				delete(m.active, userID)
			}
			slog.Info("Game connection unregistered", "user_id", userID, "session_id", tabID)
		}
	}
}

// CloseSession closes the connection playing the session with the given key.
func (m *ConnectionManager) CloseSession(sessionKey string) {
	userID, tabID, ok := strings.Cut(sessionKey, ":")
	if !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tabs, ok := m.active[userID]
	if !ok {
		return
	}
	conn, ok := tabs[tabID]
	if !ok {
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "session expired")
	delete(tabs, tabID)
	if len(tabs) == 0 {
		delete(m.active, userID)
	}
	slog.Info("Game connection closed", "user_id", userID, "session_id", tabID)
}
