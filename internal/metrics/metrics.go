// Package metrics provides Prometheus instrumentation for the Eventflow
// chat core: connection and room gauges plus message throughput counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsActive tracks the current number of active WebSocket connections.
	ConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "eventflow_connections_active",
		Help: "Current number of active WebSocket connections",
	})

	// MessagesTotal counts messages processed, labeled by outcome:
	// "delivered", "rejected".
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eventflow_messages_total",
		Help: "Total number of chat messages processed",
	}, []string{"outcome"})

	// RoomBroadcastsTotal counts room broadcast operations by event name.
	RoomBroadcastsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eventflow_room_broadcasts_total",
		Help: "Total number of room broadcasts",
	}, []string{"event"})

	// PersistFailuresTotal counts message persistence failures. Delivery
	// proceeds regardless; these are the messages live members saw but the
	// store never did.
	PersistFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "eventflow_persist_failures_total",
		Help: "Total number of fire-and-forget persistence failures",
	})
)

func init() {
	prometheus.MustRegister(
		ConnectionsActive,
		MessagesTotal,
		RoomBroadcastsTotal,
		PersistFailuresTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
