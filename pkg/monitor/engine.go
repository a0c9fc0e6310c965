package monitor

import (
	"context"
	"sync"

	"github.com/go-logr/logr"

	"github.com/batchfabric/spark-app-monitor/pkg/kube"
	"github.com/batchfabric/spark-app-monitor/pkg/monitoring"
)

// Engine is the process-wide monitoring context: the shared cluster client,
// the leak registry and the singleton sweeper, built once at startup and
// injected into every monitor. There are no hidden package-level singletons;
// tests construct as many engines as they like.
type Engine struct {
	log    logr.Logger
	client kube.ClusterClient
	opts   Options
	leaks  *LeakRegistry

	startOnce sync.Once

	mu      sync.Mutex
	baseCtx context.Context
}

// NewEngine builds an engine over the given cluster client. Zero fields of
// opts fall back to their defaults.
func NewEngine(log logr.Logger, client kube.ClusterClient, opts Options) *Engine {
	return &Engine{
		log:    log,
		client: client,
		opts:   opts.withDefaults(),
		leaks:  NewLeakRegistry(),
	}
}

// Start launches the leak sweeper and anchors every subsequent monitor to
// ctx. It is called once by the process entry point; ctx is the explicit
// shutdown hook. Later calls are no-ops.
func (e *Engine) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		e.mu.Lock()
		e.baseCtx = ctx
		e.mu.Unlock()
		go NewSweeper(e.log, e.client, e.leaks, e.opts).Run(ctx)
	})
}

// Track begins monitoring the application submitted with tag. knownID may
// be empty, in which case the identity is resolved by polling the cluster.
// handle and any listener callback are optional.
//
// The returned monitor is live immediately; its goroutine ends when the
// application reaches a terminal state or tracking is abandoned.
//
// A poll cycle that finds no driver keeps the current state: transient API
// gaps never fail a running application. The flip side is that an
// application whose pods are deleted out of band, without a terminal phase
// ever being observed, is polled indefinitely; callers who need a bound on
// that must Kill the monitor themselves.
func (e *Engine) Track(tag, knownID string, handle ProcessHandle, listener Listener) *AppMonitor {
	ctx, cancel := context.WithCancel(e.base())
	m := &AppMonitor{
		log:      e.log.WithName("app-monitor").WithValues("tag", tag),
		client:   e.client,
		leaks:    e.leaks,
		opts:     e.opts,
		tag:      tag,
		handle:   handle,
		listener: listener,
		id:       newIDSignal(),
		cancel:   cancel,
		done:     make(chan struct{}),
		state:    StateStarting,
	}
	monitoring.SetApplicationState(tag, string(StateStarting))
	go m.run(ctx, knownID)
	return m
}

// Leaks exposes the registry, for the sweeper and for tests.
func (e *Engine) Leaks() *LeakRegistry {
	return e.leaks
}

func (e *Engine) base() context.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.baseCtx != nil {
		return e.baseCtx
	}
	return context.Background()
}
