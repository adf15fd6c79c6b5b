package control

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	readingsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "irrigation_readings_ingested_total",
		Help: "Telemetry readings accepted by the ingestion pipeline.",
	})

	readingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irrigation_readings_rejected_total",
		Help: "Telemetry readings rejected before any state mutation.",
	}, []string{"reason"})

	pumpTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "irrigation_pump_transitions_total",
		Help: "Pump state flips decided by the hysteresis evaluator.",
	})
)
