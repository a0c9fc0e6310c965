package testutil

import (
	"context"
	"sync"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/batchfabric/spark-app-monitor/pkg/kube"
)

// FakeCluster is an in-memory kube.ClusterClient for engine tests. All
// state lives behind one mutex so tests can reconfigure it while monitor
// goroutines poll concurrently; mutate it only through the Set* methods.
type FakeCluster struct {
	mu   sync.Mutex
	pods []corev1.Pod

	listErr   error
	logLines  []string
	logErr    error
	deleteOK  bool
	listCalls int

	onList func(call int, selector string) ([]corev1.Pod, error)

	deletedTags []string
	deletedPods []string
}

// NewFakeCluster returns an empty cluster whose deletes succeed.
func NewFakeCluster() *FakeCluster {
	return &FakeCluster{deleteOK: true}
}

// SetPods replaces the cluster's pod set.
func (f *FakeCluster) SetPods(pods ...*corev1.Pod) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pods = f.pods[:0]
	for _, p := range pods {
		f.pods = append(f.pods, *p)
	}
}

// SetListErr makes every subsequent list call fail with err. A nil err
// restores normal listing.
func (f *FakeCluster) SetListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

// SetLogLines sets the log tail served for any pod.
func (f *FakeCluster) SetLogLines(lines ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logLines = append(f.logLines[:0], lines...)
}

// SetLogErr makes every subsequent log tail fail with err.
func (f *FakeCluster) SetLogErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logErr = err
}

// SetDeleteOK controls the reported outcome of deletes.
func (f *FakeCluster) SetDeleteOK(ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteOK = ok
}

// ScriptList overrides the pod set per list call. The call counter spans
// ListDrivers and ListPods. A nil fn restores normal listing.
func (f *FakeCluster) ScriptList(fn func(call int, selector string) ([]corev1.Pod, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onList = fn
}

// ListCalls returns how many list operations have been issued.
func (f *FakeCluster) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// DeletedTags returns every tag passed to DeleteByTag.
func (f *FakeCluster) DeletedTags() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deletedTags...)
}

// DeletedPods returns every pod name passed to DeletePod.
func (f *FakeCluster) DeletedPods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deletedPods...)
}

func (f *FakeCluster) ListDrivers(ctx context.Context) ([]corev1.Pod, error) {
	return f.ListPods(ctx, kube.DriverSelector())
}

func (f *FakeCluster) ListPods(_ context.Context, selector string) ([]corev1.Pod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++

	if f.onList != nil {
		return f.onList(f.listCalls, selector)
	}
	if f.listErr != nil {
		return nil, f.listErr
	}

	sel, err := labels.Parse(selector)
	if err != nil {
		return nil, err
	}
	var out []corev1.Pod
	for _, p := range f.pods {
		if sel.Matches(labels.Set(p.Labels)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *FakeCluster) TailLog(context.Context, string, int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.logErr != nil {
		return nil, f.logErr
	}
	return append([]string(nil), f.logLines...), nil
}

func (f *FakeCluster) DeleteByTag(_ context.Context, tag string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedTags = append(f.deletedTags, tag)
	if f.deleteOK {
		kept := f.pods[:0]
		for _, p := range f.pods {
			if p.Labels[kube.LabelAppTag] != tag {
				kept = append(kept, p)
			}
		}
		f.pods = kept
	}
	return f.deleteOK
}

func (f *FakeCluster) DeletePod(_ context.Context, podName string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedPods = append(f.deletedPods, podName)
	if f.deleteOK {
		kept := f.pods[:0]
		for _, p := range f.pods {
			if p.Name != podName {
				kept = append(kept, p)
			}
		}
		f.pods = kept
	}
	return f.deleteOK
}
