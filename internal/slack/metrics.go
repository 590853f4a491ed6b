package slack

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "snitch_slack_api_requests_total",
	Help: "Slack Web API calls by method and result",
}, []string{"method", "result"})
