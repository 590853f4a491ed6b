package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snitch_events_total",
		Help: "Pipeline events handled, by outcome",
	}, []string{"outcome"})

	digestLines = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "snitch_digest_lines",
		Help:    "Number of lines in the failure digest of events that passed the gate",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
	})
)
