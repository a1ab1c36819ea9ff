package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks pubsub connections currently in the Active state.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drops_ws_active_connections",
		Help: "Number of active pubsub connections",
	})

	// ReconnectAttemptsTotal tracks reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drops_ws_reconnect_attempts_total",
		Help: "Total number of pubsub reconnection attempts",
	})

	// SessionsEndedTotal tracks connection sessions ended, by reason.
	SessionsEndedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drops_ws_sessions_ended_total",
			Help: "Total number of pubsub sessions ended",
		},
		[]string{"reason"},
	)

	// MessagesReceivedTotal tracks inbound frames by type.
	MessagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drops_ws_messages_received_total",
			Help: "Total number of pubsub frames received",
		},
		[]string{"type"},
	)

	// HandlerErrorsTotal tracks topic handler failures.
	HandlerErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drops_ws_handler_errors_total",
			Help: "Total number of topic handler errors",
		},
		[]string{"topic"},
	)

	// ConnectionDuration tracks connection lifetime.
	ConnectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "drops_ws_connection_duration_seconds",
		Help:    "Duration of pubsub connections before disconnect",
		Buckets: []float64{60, 300, 600, 1800, 3600, 7200, 14400, 28800, 43200, 86400},
	})

	// PoolConnections tracks connections owned by the pool.
	PoolConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drops_ws_pool_connections",
		Help: "Number of connections in the pubsub pool",
	})

	// PoolTopics tracks topics registered in the pool.
	PoolTopics = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drops_ws_pool_topics",
		Help: "Number of topics registered in the pubsub pool",
	})
)
