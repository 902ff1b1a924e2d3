package schedule

import "github.com/prometheus/client_golang/prometheus"

// Metrics mirrors the engine's request counter/histogram pair (grounded on
// engine/metrics.go) at job granularity instead of HTTP-request granularity.
var (
	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corpuspipe",
			Subsystem: "schedule",
			Name:      "jobs_total",
			Help:      "Total scheduled jobs by rule and terminal status.",
		},
		[]string{"rule", "status"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "corpuspipe",
			Subsystem: "schedule",
			Name:      "job_duration_seconds",
			Help:      "Job run latency by rule.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"rule"},
	)

	jobsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corpuspipe",
			Subsystem: "schedule",
			Name:      "jobs_skipped_total",
			Help:      "Jobs skipped because their content key was already fresh.",
		},
		[]string{"rule"},
	)
)

func init() {
	prometheus.MustRegister(jobsTotal, jobDuration, jobsSkipped)
}
