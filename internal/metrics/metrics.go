// Package metrics provides Prometheus instrumentation for the add-on core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// LifecycleEventsTotal counts install/uninstall notifications by outcome.
	LifecycleEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "addon",
			Name:      "lifecycle_events_total",
			Help:      "Total lifecycle notifications by event and outcome.",
		},
		[]string{"event", "outcome"},
	)

	// WebhookDispatchesTotal counts webhook dispatches by event and outcome.
	WebhookDispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "addon",
			Name:      "webhook_dispatches_total",
			Help:      "Total webhook dispatches by event name and outcome.",
		},
		[]string{"event", "outcome"},
	)

	// AuthRejectionsTotal counts token verification rejections by reason.
	AuthRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "addon",
			Name:      "auth_rejections_total",
			Help:      "Total signed-token rejections by reason.",
		},
		[]string{"reason"},
	)
)

// Register registers all collectors with the default registry. Call once
// at startup.
func Register() {
	prometheus.MustRegister(
		LifecycleEventsTotal,
		WebhookDispatchesTotal,
		AuthRejectionsTotal,
	)
}
