package rbac

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionCounter = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "rbac_decisions_total",
			Help: "Number of authorization decisions, differentiated by result and reason.",
		},
		[]string{"result", "reason"},
	)

	unknownPermissionCounter = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "rbac_unknown_permission_total",
			Help: "Number of authorization checks against permissions missing from the catalog.",
		},
		[]string{"permission"},
	)

	reconcileCounter = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "rbac_reconcile_items_total",
			Help: "Number of items processed by reconciliation routines, differentiated by outcome.",
		},
		[]string{"routine", "outcome"},
	)
)

func observeDecision(d Decision) {
	result := "deny"
	if d.Allowed {
		result = "allow"
	}

	decisionCounter.WithLabelValues(result, string(d.Reason)).Inc()
}
