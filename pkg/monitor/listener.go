package monitor

// Listener receives lifecycle callbacks for one tracked application. Every
// field is optional; nil callbacks are skipped.
//
// Callbacks are invoked on the application's monitor goroutine, in order,
// at most once per distinct value. Implementations must not block for long:
// the monitor does not poll while a callback runs.
type Listener struct {
	// IDKnown is called once, when the cluster-assigned application ID has
	// been resolved.
	IDKnown func(id string)

	// StateChanged is called on every lifecycle transition.
	StateChanged func(from, to ApplicationState)

	// InfoChanged is called whenever the application info snapshot changes.
	InfoChanged func(info ApplicationInfo)
}

// ProcessHandle is the opaque handle to the process that submitted the
// application. The monitor only ever destroys it, as best-effort cleanup
// when the submission is abandoned or killed.
type ProcessHandle interface {
	Destroy()
}
