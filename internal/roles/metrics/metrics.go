package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the roles module.
type Metrics struct {
	GrantsTotal    prometheus.Counter
	RevokesTotal   prometheus.Counter
	DeniedTotal    prometheus.Counter
	BulkAssignSize prometheus.Histogram
	GrantDuration  prometheus.Histogram
}

// New creates a Metrics instance with all roles module metrics registered.
func New() *Metrics {
	return &Metrics{
		GrantsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "siscof_role_grants_total",
			Help: "Total number of role grant calls that succeeded (including idempotent repeats)",
		}),
		RevokesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "siscof_role_revokes_total",
			Help: "Total number of role revoke calls that succeeded",
		}),
		DeniedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "siscof_role_changes_denied_total",
			Help: "Total number of grant/revoke calls rejected by the permission check",
		}),
		BulkAssignSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "siscof_bulk_assign_size",
			Help:    "Number of assignments per bulkAssign call",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),
		GrantDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "siscof_role_grant_duration_seconds",
			Help:    "Duration of grant operations including the audit write",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveGrant records the duration of a grant operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveGrant(start time.Time) {
	m.GrantDuration.Observe(time.Since(start).Seconds())
}
