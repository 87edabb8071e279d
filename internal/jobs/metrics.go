package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runCounter = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "rbac_job_runs_total",
			Help: "Number of reconciliation job runs, differentiated by routine and outcome.",
		},
		[]string{"routine", "outcome"},
	)

	runDuration = promauto.NewHistogramVec( //nolint:gochecknoglobals
		prometheus.HistogramOpts{
			Name:    "rbac_job_run_duration_seconds",
			Help:    "Duration of reconciliation job runs.",
			Buckets: prometheus.ExponentialBuckets(0.05, 4, 8),
		},
		[]string{"routine"},
	)
)
