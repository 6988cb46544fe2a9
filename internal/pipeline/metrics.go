package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardscan_frames_total",
			Help: "Total number of processed frames by outcome",
		},
		[]string{"outcome"},
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardscan_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"stage"}, // detection, rectification, recognition
	)

	recognitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardscan_recognitions_total",
			Help: "Total number of recognition jobs by status",
		},
		[]string{"status"}, // complete, incomplete, error, panic
	)

	gatesClosed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardscan_gate_closed",
			Help: "Number of scan sessions with a recognition job in flight",
		},
	)
)
