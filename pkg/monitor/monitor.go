package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/batchfabric/spark-app-monitor/pkg/kube"
	"github.com/batchfabric/spark-app-monitor/pkg/monitoring"
)

// stoppedByUser is the fixed diagnostics message of an application killed
// through the monitor rather than by the cluster.
const stoppedByUser = "Application stopped by user."

// deleteTimeout bounds the cluster-side delete issued by Kill. On expiry
// the monitor is cancelled instead of blocking the killer.
const deleteTimeout = 30 * time.Second

// AppMonitor tracks one application from submission to terminal state. It
// owns the application's lifecycle state and info snapshot exclusively; the
// only shared structure it touches is the leak registry.
type AppMonitor struct {
	log      logr.Logger
	client   kube.ClusterClient
	leaks    *LeakRegistry
	opts     Options
	tag      string
	handle   ProcessHandle
	listener Listener

	id          *idSignal
	cancel      context.CancelFunc
	done        chan struct{}
	destroyOnce sync.Once

	mu          sync.Mutex
	state       ApplicationState
	info        ApplicationInfo
	appID       string
	logLines    []string
	diagnostics []string
}

// run is the monitor goroutine: resolve the identity, then poll the
// lifecycle until a terminal state is reached. Context cancellation always
// routes to the killed path; any other escaping failure routes to the
// failed path with the failure text as diagnostics.
func (m *AppMonitor) run(ctx context.Context, knownID string) {
	defer close(m.done)
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("application monitor panicked: %v", r)
			m.log.Error(err, "monitor failed", "tag", m.tag)
			m.id.fail(err)
			m.fail(err)
		}
	}()

	ctx, span := monitoring.StartTrackSpan(ctx, m.tag)
	defer span.End()

	appID := knownID
	if appID == "" {
		resolved, err := resolveAppID(ctx, m.log, m.client, m.leaks, m.destroyHandle, m.tag, m.opts)
		if err != nil {
			monitoring.RecordSpanError(span, err)
			m.id.fail(err)
			if ctx.Err() != nil {
				m.interrupted()
				return
			}
			// Resolution timed out: the failure surfaces synchronously
			// through the identity signal and the task ends in STARTING.
			m.log.Error(err, "application identity was never resolved", "tag", m.tag)
			return
		}
		appID = resolved
	}

	m.mu.Lock()
	m.appID = appID
	m.mu.Unlock()
	m.id.complete(appID)
	m.log.Info("application identity resolved", "tag", m.tag, "appId", appID)
	if m.listener.IDKnown != nil {
		m.listener.IDKnown(appID)
	}

	m.pollLoop(ctx)
}

func (m *AppMonitor) pollLoop(ctx context.Context) {
	for !m.State().IsTerminal() {
		select {
		case <-ctx.Done():
			m.interrupted()
			return
		case <-time.After(m.opts.PollInterval):
		}

		report := assembleReport(ctx, m.client, m.tag, m.opts.LogCacheSize)
		if ctx.Err() != nil {
			m.interrupted()
			return
		}

		m.mu.Lock()
		m.logLines = report.LogLines
		m.diagnostics = report.Diagnostics
		m.mu.Unlock()

		if report.State == StateUnknown {
			// No driver visible this cycle. Keep the current state rather
			// than failing on what may be a transient API gap.
			monitoring.RecordDegenerateReport(m.tag)
			continue
		}

		to := MapPodPhase(m.log, report.State, m.tag)
		m.transition(to)

		info := ApplicationInfo{TrackingURL: report.TrackingURL}
		if to.IsTerminal() && m.opts.HistoryServerURL != "" {
			info.TrackingURL = m.historyURL()
		}
		m.updateInfo(info)
	}
}

// transition moves the state machine, notifying the listener with the
// (from, to) pair exactly once per change. Terminal states are absorbing
// and re-entering Starting after leaving it is ignored.
func (m *AppMonitor) transition(to ApplicationState) {
	m.mu.Lock()
	from := m.state
	if from == to || from.IsTerminal() || (to == StateStarting && from != StateStarting) {
		m.mu.Unlock()
		return
	}
	m.state = to
	m.mu.Unlock()

	m.log.Info("application state changed", "tag", m.tag, "from", from, "to", to)
	monitoring.RecordStateTransition(string(from), string(to))
	monitoring.SetApplicationState(m.tag, string(to))
	if m.listener.StateChanged != nil {
		m.listener.StateChanged(from, to)
	}
}

// updateInfo replaces the info snapshot, notifying the listener only when
// the value actually changed.
func (m *AppMonitor) updateInfo(info ApplicationInfo) {
	m.mu.Lock()
	if m.info == info {
		m.mu.Unlock()
		return
	}
	m.info = info
	m.mu.Unlock()

	if m.listener.InfoChanged != nil {
		m.listener.InfoChanged(info)
	}
}

// interrupted is the deterministic cancellation path: fixed diagnostics,
// then a forced transition to Killed.
func (m *AppMonitor) interrupted() {
	m.mu.Lock()
	m.diagnostics = []string{stoppedByUser}
	m.mu.Unlock()
	m.transition(StateKilled)
}

// fail is the path for otherwise-uncaught monitor failures: the failure
// text becomes the diagnostics and the state is forced to Failed.
func (m *AppMonitor) fail(err error) {
	m.mu.Lock()
	m.diagnostics = []string{err.Error()}
	m.mu.Unlock()
	m.transition(StateFailed)
}

// Kill terminates the application. It is idempotent and safe to call
// concurrently: a no-op once the state is terminal. The cluster-side delete
// is bounded by its own timeout; on expiry or interruption the monitor is
// cancelled so the killed path still runs. The submitting process handle is
// destroyed in all cases, best effort, regardless of the delete outcome.
func (m *AppMonitor) Kill(ctx context.Context) {
	defer m.destroyHandle()

	if m.State().IsTerminal() {
		return
	}

	dctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()
	if !m.client.DeleteByTag(dctx, m.tag) {
		m.log.Info("cluster-side delete did not fully complete", "tag", m.tag)
	}
	if dctx.Err() != nil {
		m.log.Info("cluster-side delete timed out or was interrupted, cancelling monitor", "tag", m.tag)
	}

	// Route termination through the monitor goroutine so notifications stay
	// ordered on its task.
	m.cancel()
	select {
	case <-m.done:
		// The goroutine may have already ended without reaching a terminal
		// state (identity never resolved). Finish the job here.
		if !m.State().IsTerminal() {
			m.interrupted()
		}
	case <-ctx.Done():
	}
}

func (m *AppMonitor) destroyHandle() {
	if m.handle == nil {
		return
	}
	m.destroyOnce.Do(m.handle.Destroy)
}

func (m *AppMonitor) historyURL() string {
	m.mu.Lock()
	appID := m.appID
	m.mu.Unlock()
	return fmt.Sprintf("%s/history/%s/jobs/", strings.TrimSuffix(m.opts.HistoryServerURL, "/"), appID)
}

// State returns the current lifecycle state.
func (m *AppMonitor) State() ApplicationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Info returns the current application info snapshot.
func (m *AppMonitor) Info() ApplicationInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info
}

// Tag returns the correlation tag the application was submitted with.
func (m *AppMonitor) Tag() string {
	return m.tag
}

// AwaitAppID blocks until the application ID is resolved, resolution fails,
// or ctx is done. Cancelling ctx does not affect resolution itself.
func (m *AppMonitor) AwaitAppID(ctx context.Context) (string, error) {
	return m.id.await(ctx)
}

// AppID returns the resolved application ID without blocking; ok is false
// while resolution is still in flight.
func (m *AppMonitor) AppID() (id string, ok bool) {
	id, err, assigned := m.id.poll()
	return id, assigned && err == nil
}

// Log returns the combined cached driver log and cluster diagnostics.
func (m *AppMonitor) Log() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.logLines)+len(m.diagnostics)+2)
	out = append(out, "stdout:")
	out = append(out, m.logLines...)
	out = append(out, "\nKubernetes Diagnostics:")
	out = append(out, m.diagnostics...)
	return out
}

// Done is closed when the monitor goroutine has ended.
func (m *AppMonitor) Done() <-chan struct{} {
	return m.done
}
