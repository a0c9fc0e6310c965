package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"

	"github.com/batchfabric/spark-app-monitor/pkg/testutil"
)

func fastOptions() Options {
	return Options{
		LookupTimeout: 100 * time.Millisecond,
		PollInterval:  10 * time.Millisecond,
	}.withDefaults()
}

func TestResolveAppID(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		pods    []*corev1.Pod
		wantID  string
		wantErr bool
	}{
		"driver present": {
			pods:   []*corev1.Pod{testutil.DriverPod("driver-1", "tag-1", "spark-app-42", corev1.PodRunning)},
			wantID: "spark-app-42",
		},
		"tag matched as substring": {
			pods:    []*corev1.Pod{testutil.DriverPod("driver-1", "parent-tag,tag-1", "spark-app-42", corev1.PodRunning)},
			wantID:  "spark-app-42",
			wantErr: false,
		},
		"unrelated driver only": {
			pods:    []*corev1.Pod{testutil.DriverPod("driver-x", "other-tag", "spark-app-x", corev1.PodRunning)},
			wantErr: true,
		},
		"empty cluster": {
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			fc := testutil.NewFakeCluster()
			fc.SetPods(tc.pods...)
			leaks := NewLeakRegistry()

			id, err := resolveAppID(context.Background(), logr.Discard(), fc, leaks, nil, "tag-1", fastOptions())
			if tc.wantErr {
				var timeoutErr *ResolveTimeoutError
				if !errors.As(err, &timeoutErr) {
					t.Fatalf("error mismatch: got %v, want *ResolveTimeoutError", err)
				}
				if _, ok := leaks.Snapshot()["tag-1"]; !ok {
					t.Errorf("leak registry missing %q after timeout", "tag-1")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tc.wantID {
				t.Errorf("app ID mismatch: got %q, want %q", id, tc.wantID)
			}
			if n := len(leaks.Snapshot()); n != 0 {
				t.Errorf("leak registry mismatch: got %d entries, want 0", n)
			}
		})
	}
}

func TestResolveAppIDRetriesUntilDriverAppears(t *testing.T) {
	t.Parallel()

	fc := testutil.NewFakeCluster()
	fc.ScriptList(func(call int, _ string) ([]corev1.Pod, error) {
		if call < 3 {
			return nil, nil
		}
		return []corev1.Pod{*testutil.DriverPod("driver-1", "tag-1", "spark-app-42", corev1.PodPending)}, nil
	})

	id, err := resolveAppID(context.Background(), logr.Discard(), fc, NewLeakRegistry(), nil, "tag-1", fastOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "spark-app-42" {
		t.Errorf("app ID mismatch: got %q, want %q", id, "spark-app-42")
	}
	if calls := fc.ListCalls(); calls < 3 {
		t.Errorf("list calls mismatch: got %d, want at least 3", calls)
	}
}

func TestResolveAppIDTimeoutDestroysHandleOnce(t *testing.T) {
	t.Parallel()

	opts := fastOptions()
	destroyed := 0
	start := time.Now()

	_, err := resolveAppID(context.Background(), logr.Discard(), testutil.NewFakeCluster(), NewLeakRegistry(),
		func() { destroyed++ }, "tag-1", opts)

	var timeoutErr *ResolveTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("error mismatch: got %v, want *ResolveTimeoutError", err)
	}
	if timeoutErr.Tag != "tag-1" || timeoutErr.Timeout != opts.LookupTimeout {
		t.Errorf("error fields mismatch: got %+v", timeoutErr)
	}
	if destroyed != 1 {
		t.Errorf("destroy count mismatch: got %d, want 1", destroyed)
	}
	// Terminates within the deadline plus at most one residual interval,
	// with generous slack for a loaded test host.
	if elapsed := time.Since(start); elapsed > opts.LookupTimeout+20*opts.PollInterval {
		t.Errorf("resolution overran its deadline: took %s", elapsed)
	}
}

func TestResolveAppIDContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	leaks := NewLeakRegistry()

	_, err := resolveAppID(ctx, logr.Discard(), testutil.NewFakeCluster(), leaks, nil, "tag-1", fastOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error mismatch: got %v, want context.Canceled", err)
	}
	if n := len(leaks.Snapshot()); n != 0 {
		t.Errorf("leak registry mismatch: got %d entries, want 0", n)
	}
}

func TestResolveTimeoutErrorMessage(t *testing.T) {
	t.Parallel()

	err := &ResolveTimeoutError{Tag: "tag-1", Timeout: 2 * time.Minute}
	want := `no application with tag "tag-1" found within 2m0s, check your cluster status and the submission log`
	if got := err.Error(); got != want {
		t.Errorf("message mismatch:\ngot  %q\nwant %q", got, want)
	}
}
