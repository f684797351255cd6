package realtime

import "socialex/internal/pkg/metrics"

// Conn is a live transport connection as seen by the realtime core.
type Conn interface {
	// ID identifies the connection for the lifetime of the process.
	ID() string

	// Emit queues an event for delivery without blocking.
	// It reports false when the event was dropped (queue full or connection closed).
	Emit(event string, payload any) bool

	// Close terminates the connection.
	Close()
}

// emit sends one event to conn and records the outcome.
func emit(conn Conn, event string, payload any) bool {
	if conn.Emit(event, payload) {
		metrics.Emitted.WithLabelValues(event).Inc()
		return true
	}
	metrics.Dropped.WithLabelValues(event).Inc()
	return false
}
