package notifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snitch_deliveries_total",
			Help: "Total notification delivery attempts by sender and status.",
		},
		[]string{"sender", "status"},
	)
	deliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snitch_delivery_duration_seconds",
			Help:    "Duration of notification delivery calls.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"sender", "status"},
	)
)
