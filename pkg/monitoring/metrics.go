package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

// Domain-specific metric collectors.
//
// These cover the state the Kubernetes client library cannot know about:
// per-application lifecycle, identity resolution and leak bookkeeping.
var (
	applicationInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spark_app_monitor_application_info",
			Help: "Info-style metric tracking each application's lifecycle state. Always 1.",
		},
		[]string{"tag", "state"},
	)

	stateTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spark_app_monitor_state_transitions_total",
			Help: "Total number of application lifecycle transitions.",
		},
		[]string{"from", "to"},
	)

	degenerateReportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spark_app_monitor_degenerate_reports_total",
			Help: "Poll cycles that yielded no driver information, per application tag.",
		},
		[]string{"tag"},
	)

	leakedApplications = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spark_app_monitor_leaked_applications",
			Help: "Number of unresolved application tags currently in the leak registry.",
		},
	)

	sweepResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spark_app_monitor_sweep_results_total",
			Help: "Leak sweeper outcomes, partitioned by result (killed or evicted).",
		},
		[]string{"result"},
	)

	resolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spark_app_monitor_resolve_duration_seconds",
			Help:    "Time spent resolving an application tag to its cluster-assigned ID.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"outcome"},
	)
)

func init() {
	metrics.Registry.MustRegister(
		applicationInfo,
		stateTransitionsTotal,
		degenerateReportsTotal,
		leakedApplications,
		sweepResultsTotal,
		resolveDuration,
	)
}

// Collectors returns all registered metric collectors. This is useful for
// testing that metrics are properly registered.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		applicationInfo,
		stateTransitionsTotal,
		degenerateReportsTotal,
		leakedApplications,
		sweepResultsTotal,
		resolveDuration,
	}
}
