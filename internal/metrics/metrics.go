package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Generations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorboard_generations_total",
			Help: "Step generation requests by outcome",
		},
		[]string{"outcome"},
	)

	GenerationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tutorboard_generation_latency_seconds",
			Help:    "Step generation latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		},
	)

	Narrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorboard_narrations_total",
			Help: "Narration synthesis requests by outcome",
		},
		[]string{"outcome"},
	)

	NarrationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tutorboard_narration_latency_seconds",
			Help:    "Narration synthesis latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		},
	)

	Advances = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorboard_advances_total",
			Help: "Automatic step advances by reason",
		},
		[]string{"reason"},
	)

	WebClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tutorboard_ws_clients",
			Help: "Connected websocket clients",
		},
	)
)

// Outcome labels.
const (
	OK      = "ok"
	Failed  = "error"
	Empty   = "empty"
	Aborted = "canceled"
)
