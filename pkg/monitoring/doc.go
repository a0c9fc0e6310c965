// Package monitoring provides Prometheus metrics and recording helpers for
// the Spark application monitor. It exposes domain-specific gauges and
// counters that complement the generic client-go metrics already registered
// by the framework.
//
// All metrics follow the naming convention spark_app_monitor_<metric>_<unit>
// and are registered against controller-runtime's default Prometheus
// registry on import.
//
// Usage in the engine:
//
//	monitoring.SetApplicationState(tag, string(state))
//	monitoring.RecordStateTransition(string(from), string(to))
//
// Usage in the sweeper:
//
//	monitoring.RecordSweep(killed, evicted)
package monitoring
