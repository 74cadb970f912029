package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collaboration metrics, exposed on /metrics.
var (
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flowboard_ws_connections_active",
		Help: "Number of live websocket connections.",
	})

	wsMessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowboard_ws_messages_received_total",
		Help: "Inbound websocket messages by message type.",
	}, []string{"message_type"})

	wsBroadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowboard_ws_broadcasts_total",
		Help: "Fan-out operations performed by the hub.",
	})

	wsSendDropsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowboard_ws_send_drops_total",
		Help: "Clients evicted because their send buffer overflowed.",
	})
)
