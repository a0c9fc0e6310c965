package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/batchfabric/spark-app-monitor/pkg/kube"
	"github.com/batchfabric/spark-app-monitor/pkg/monitoring"
)

// ResolveTimeoutError reports that no driver pod carrying the tag appeared
// within the configured lookup timeout.
type ResolveTimeoutError struct {
	Tag     string
	Timeout time.Duration
}

func (e *ResolveTimeoutError) Error() string {
	return fmt.Sprintf("no application with tag %q found within %s, check your cluster status and the submission log", e.Tag, e.Timeout)
}

// resolveAppID polls the cluster until a driver pod whose tag label
// contains tag appears, and returns its application ID. One query is issued
// per poll interval; the loop terminates within the lookup timeout plus one
// interval.
//
// On timeout the submitting process handle, if any, is destroyed, the tag
// is recorded in the leak registry, and a *ResolveTimeoutError is returned.
// Context cancellation is returned as-is so the caller can route it to the
// killed path.
func resolveAppID(
	ctx context.Context,
	log logr.Logger,
	c kube.ClusterClient,
	leaks *LeakRegistry,
	destroy func(),
	tag string,
	opts Options,
) (string, error) {
	ctx, span := monitoring.StartChildSpan(ctx, "monitor.resolve")
	defer span.End()

	started := time.Now()
	deadline := started.Add(opts.LookupTimeout)

	for {
		drivers, err := c.ListDrivers(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			log.V(1).Info("listing driver pods failed, will retry", "tag", tag, "error", err.Error())
		}
		for i := range drivers {
			if strings.Contains(drivers[i].Labels[kube.LabelAppTag], tag) {
				monitoring.ObserveResolveDuration(time.Since(started), nil)
				return drivers[i].Labels[kube.LabelAppID], nil
			}
		}

		if time.Now().After(deadline) {
			if destroy != nil {
				destroy()
			}
			leaks.Insert(tag)
			err := &ResolveTimeoutError{Tag: tag, Timeout: opts.LookupTimeout}
			monitoring.ObserveResolveDuration(time.Since(started), err)
			monitoring.RecordSpanError(span, err)
			return "", err
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(opts.PollInterval):
		}
	}
}
