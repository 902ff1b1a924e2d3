package preload

import "github.com/prometheus/client_golang/prometheus"

// metrics mirror schedule.Metrics at request-outcome granularity, grounded
// on the same engine/metrics.go counter-pair convention.
var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corpuspipe",
			Subsystem: "preload",
			Name:      "requests_total",
			Help:      "Total preloader dispatch requests by processor and outcome.",
		},
		[]string{"processor", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
}
