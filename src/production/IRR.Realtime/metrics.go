package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsConnected = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "irrigation_sessions_connected",
		Help: "Number of live WebSocket sessions by kind.",
	}, []string{"kind"})

	messagesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irrigation_broadcast_delivered_total",
		Help: "Broadcast messages successfully enqueued to sessions.",
	}, []string{"type"})

	messagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irrigation_broadcast_dropped_total",
		Help: "Broadcast messages dropped for slow or closed sessions.",
	}, []string{"type"})
)
