/*
Package metrics declares the Prometheus collectors of the realtime layer.

Collectors are registered on the default registry, which the /metrics endpoint serves.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// OnlineUsers is the number of user identities with a registered connection.
	OnlineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "socialex",
		Subsystem: "realtime",
		Name:      "online_users",
		Help:      "Users with a live registered connection.",
	})

	// Connections counts WebSocket connections by lifecycle phase (opened, closed).
	Connections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "socialex",
		Subsystem: "realtime",
		Name:      "connections_total",
		Help:      "WebSocket connections by phase.",
	}, []string{"phase"})

	// Events counts inbound client events by name and outcome (ok, error, ignored).
	Events = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "socialex",
		Subsystem: "realtime",
		Name:      "events_total",
		Help:      "Inbound realtime events by name and outcome.",
	}, []string{"event", "outcome"})

	// Emitted counts outbound server events by name.
	Emitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "socialex",
		Subsystem: "realtime",
		Name:      "emitted_total",
		Help:      "Outbound realtime events by name.",
	}, []string{"event"})

	// Dropped counts outbound events discarded because the connection queue was full or closed.
	Dropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "socialex",
		Subsystem: "realtime",
		Name:      "dropped_total",
		Help:      "Outbound realtime events dropped before delivery.",
	}, []string{"event"})
)

func init() {
	prometheus.MustRegister(OnlineUsers, Connections, Events, Emitted, Dropped)
}
