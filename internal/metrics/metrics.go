// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HookFailures counts hook entries whose contribution failed and was dropped.
	HookFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codereview",
		Subsystem: "hooks",
		Name:      "failures_total",
		Help:      "Hook contributions that failed and were omitted from the render.",
	}, []string{"point"})

	// ConfigOperations counts configuration manager operations by outcome.
	ConfigOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codereview",
		Subsystem: "integrations",
		Name:      "config_operations_total",
		Help:      "Configured integration operations by operation and result.",
	}, []string{"operation", "result"})

	// RunningIntegrations is the number of integration instances currently initialized.
	RunningIntegrations = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "codereview",
		Subsystem: "integrations",
		Name:      "running",
		Help:      "Integration instances currently initialized.",
	})

	// EventDeliveries counts review events forwarded to notifier integrations.
	EventDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codereview",
		Subsystem: "notifications",
		Name:      "deliveries_total",
		Help:      "Review event deliveries by integration and result.",
	}, []string{"integration", "result"})
)

// Register adds every collector of this package to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{HookFailures, ConfigOperations, RunningIntegrations, EventDeliveries} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the metrics gathered by reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Result maps an error to the "result" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
