package monitor

import (
	"strings"

	"github.com/go-logr/logr"
)

// ApplicationState is the lifecycle state of a tracked application.
//
// Starting is the initial state. Running is reachable only from Starting.
// Finished, Failed and Killed are terminal: once entered, no further
// transition is possible.
type ApplicationState string

const (
	StateStarting ApplicationState = "STARTING"
	StateRunning  ApplicationState = "RUNNING"
	StateFinished ApplicationState = "FINISHED"
	StateFailed   ApplicationState = "FAILED"
	StateKilled   ApplicationState = "KILLED"
)

// IsTerminal reports whether no further state transition is possible.
func (s ApplicationState) IsTerminal() bool {
	switch s {
	case StateFinished, StateFailed, StateKilled:
		return true
	default:
		return false
	}
}

// MapPodPhase maps a cluster-reported pod phase onto the lifecycle enum.
// Matching is case-insensitive and total: a phase outside the known set is
// conservatively mapped to Failed with a warning, never treated as still
// running.
func MapPodPhase(log logr.Logger, phase, tag string) ApplicationState {
	switch strings.ToLower(phase) {
	case "pending", "containercreating", "container-creating":
		return StateStarting
	case "running":
		return StateRunning
	case "completed", "succeeded":
		return StateFinished
	case "failed", "error":
		return StateFailed
	default:
		log.Info("unknown pod phase, mapping to FAILED", "phase", phase, "tag", tag)
		return StateFailed
	}
}
