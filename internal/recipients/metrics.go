package recipients

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var lookupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "snitch_directory_lookups_total",
		Help: "Directory lookups by result (found, not_found, error).",
	},
	[]string{"result"},
)
