package monitoring

import "time"

// SetApplicationState sets the info-style gauge for a tracked application.
// Old state labels are automatically cleaned up via DeletePartialMatch.
func SetApplicationState(tag, state string) {
	applicationInfo.DeletePartialMatch(map[string]string{"tag": tag})
	applicationInfo.WithLabelValues(tag, state).Set(1)
}

// RecordStateTransition counts one lifecycle transition.
func RecordStateTransition(from, to string) {
	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordDegenerateReport counts a poll cycle that produced no driver
// information for the given tag.
func RecordDegenerateReport(tag string) {
	degenerateReportsTotal.WithLabelValues(tag).Inc()
}

// SetLeakedApplications sets the current size of the leak registry.
func SetLeakedApplications(n int) {
	leakedApplications.Set(float64(n))
}

// RecordSweep records one leak sweeper cycle's outcomes.
func RecordSweep(killed, evicted int) {
	sweepResultsTotal.WithLabelValues("killed").Add(float64(killed))
	sweepResultsTotal.WithLabelValues("evicted").Add(float64(evicted))
}

// ObserveResolveDuration records how long identity resolution took and
// whether it succeeded.
func ObserveResolveDuration(d time.Duration, err error) {
	outcome := "resolved"
	if err != nil {
		outcome = "timeout"
	}
	resolveDuration.WithLabelValues(outcome).Observe(d.Seconds())
}
