package access

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "siscof_access_evaluation_duration_seconds",
		Help:    "Duration of accessible-unit set computations",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})

	manageDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "siscof_access_manage_denied_total",
		Help: "Total number of manage checks that returned false",
	})
)
