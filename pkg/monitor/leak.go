package monitor

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/batchfabric/spark-app-monitor/pkg/kube"
	"github.com/batchfabric/spark-app-monitor/pkg/monitoring"
)

// LeakRegistry records application tags whose launch could not be confirmed
// within the lookup deadline. It is the only structure shared between
// monitors and the sweeper and is safe for concurrent insert, remove and
// snapshot; raw iteration is never exposed.
type LeakRegistry struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewLeakRegistry returns an empty registry.
func NewLeakRegistry() *LeakRegistry {
	return &LeakRegistry{entries: make(map[string]time.Time)}
}

// Insert records the tag with the current timestamp. Re-inserting an
// already tracked tag keeps its original first-seen time.
func (r *LeakRegistry) Insert(tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[tag]; !ok {
		r.entries[tag] = time.Now()
	}
	monitoring.SetLeakedApplications(len(r.entries))
}

// Remove drops the tag from the registry, if present.
func (r *LeakRegistry) Remove(tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, tag)
	monitoring.SetLeakedApplications(len(r.entries))
}

// Snapshot returns a copy of the current entries. The sweeper iterates the
// copy so concurrent inserts never race with iteration.
func (r *LeakRegistry) Snapshot() map[string]time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.entries)
}

// Sweeper is the process-wide garbage collector for leaked applications.
// Each cycle it snapshots the registry and, per tag, either kills a now
// discoverable application and drops the entry, or evicts the entry once it
// is older than the retention timeout. The two outcomes are mutually
// exclusive within a cycle.
type Sweeper struct {
	log      logr.Logger
	client   kube.ClusterClient
	registry *LeakRegistry
	opts     Options
}

// NewSweeper builds a sweeper over the shared cluster client and registry.
func NewSweeper(log logr.Logger, client kube.ClusterClient, registry *LeakRegistry, opts Options) *Sweeper {
	return &Sweeper{
		log:      log.WithName("leak-sweeper"),
		client:   client,
		registry: registry,
		opts:     opts.withDefaults(),
	}
}

// Run sweeps at the configured interval until ctx is cancelled. It is
// started once at process initialization; ctx is the explicit stop hook.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.LeakCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	ctx, span := monitoring.StartChildSpan(ctx, "monitor.sweep")
	defer span.End()

	var killed, evicted int
	for tag, firstSeen := range s.registry.Snapshot() {
		pods, err := s.client.ListPods(ctx, kube.TagSelector(tag))
		if err != nil {
			s.log.V(1).Info("leak check query failed, keeping entry", "tag", tag, "error", err.Error())
			continue
		}

		switch {
		case len(pods) > 0:
			s.log.Info("killing leaked application", "tag", tag)
			if !s.client.DeleteByTag(ctx, tag) {
				s.log.Info("best-effort delete of leaked application did not complete", "tag", tag)
			}
			s.registry.Remove(tag)
			killed++
		case time.Since(firstSeen) > s.opts.LeakRetention:
			// Never launched, or already reaped by someone else.
			s.registry.Remove(tag)
			evicted++
		}
	}
	monitoring.RecordSweep(killed, evicted)
}
