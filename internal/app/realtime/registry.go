package realtime

import (
	"sync"

	"socialex/internal/pkg/metrics"
)

// Registry maps a user identity to its single live connection.
// A later registration for the same identity replaces the earlier one.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Register binds userID to conn, returning the connection it replaced, if any.
func (r *Registry) Register(userID string, conn Conn) (previous Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous = r.conns[userID]
	r.conns[userID] = conn
	metrics.OnlineUsers.Set(float64(len(r.conns)))

	return previous
}

// Lookup returns the live connection of userID.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[userID]
	return conn, ok
}

// Unregister removes the mapping of userID. It reports whether a mapping existed.
func (r *Registry) Unregister(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[userID]; !ok {
		return false
	}
	delete(r.conns, userID)
	metrics.OnlineUsers.Set(float64(len(r.conns)))

	return true
}

// Release removes the mapping of userID only while it still points at conn.
// A connection that was replaced by a newer one releases nothing.
func (r *Registry) Release(userID string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.conns[userID]; !ok || current != conn {
		return false
	}
	delete(r.conns, userID)
	metrics.OnlineUsers.Set(float64(len(r.conns)))

	return true
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}
