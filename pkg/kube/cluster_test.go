package kube_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/batchfabric/spark-app-monitor/pkg/kube"
	"github.com/batchfabric/spark-app-monitor/pkg/testutil"
)

func newCluster(pods ...*corev1.Pod) (kube.ClusterClient, *fake.Clientset) {
	objs := make([]runtime.Object, 0, len(pods))
	for _, p := range pods {
		objs = append(objs, p)
	}
	cs := fake.NewClientset(objs...)
	return kube.NewClusterClient(cs, testutil.Namespace), cs
}

func podNames(pods []corev1.Pod) []string {
	names := make([]string, 0, len(pods))
	for _, p := range pods {
		names = append(names, p.Name)
	}
	return names
}

func TestListPods(t *testing.T) {
	t.Parallel()

	c, _ := newCluster(
		testutil.DriverPod("driver-1", "tag-1", "spark-app-42", corev1.PodRunning),
		testutil.ExecutorPod("exec-1", "tag-1", corev1.PodRunning),
		testutil.DriverPod("driver-2", "tag-2", "spark-app-43", corev1.PodRunning),
	)

	tests := map[string]struct {
		selector string
		want     []string
	}{
		"all pods of one tag": {
			selector: kube.TagSelector("tag-1"),
			want:     []string{"driver-1", "exec-1"},
		},
		"driver of one tag": {
			selector: kube.TagDriverSelector("tag-1"),
			want:     []string{"driver-1"},
		},
		"all drivers": {
			selector: kube.DriverSelector(),
			want:     []string{"driver-1", "driver-2"},
		},
		"no match": {
			selector: kube.TagSelector("tag-3"),
			want:     nil,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pods, err := c.ListPods(context.Background(), tc.selector)
			if err != nil {
				t.Fatalf("ListPods failed: %v", err)
			}
			var got []string
			if len(pods) > 0 {
				got = podNames(pods)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("pods mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListPodsFailure(t *testing.T) {
	t.Parallel()

	c, cs := newCluster()
	testutil.FailOnVerb(cs, "list", "pods", testutil.ErrInjected)

	if _, err := c.ListPods(context.Background(), kube.DriverSelector()); err == nil {
		t.Fatal("expected an error from the injected list failure")
	}
}

func TestTailLog(t *testing.T) {
	t.Parallel()

	c, _ := newCluster(testutil.DriverPod("driver-1", "tag-1", "spark-app-42", corev1.PodRunning))

	lines, err := c.TailLog(context.Background(), "driver-1", 10)
	if err != nil {
		t.Fatalf("TailLog failed: %v", err)
	}
	// The fake clientset serves a fixed log body.
	if diff := cmp.Diff([]string{"fake logs"}, lines); diff != "" {
		t.Errorf("log lines mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteByTag(t *testing.T) {
	t.Parallel()

	t.Run("deletes every pod of the tag", func(t *testing.T) {
		t.Parallel()

		c, _ := newCluster(
			testutil.DriverPod("driver-1", "tag-1", "spark-app-42", corev1.PodRunning),
			testutil.ExecutorPod("exec-1", "tag-1", corev1.PodRunning),
			testutil.DriverPod("driver-2", "tag-2", "spark-app-43", corev1.PodRunning),
		)

		if !c.DeleteByTag(context.Background(), "tag-1") {
			t.Fatal("DeleteByTag reported failure")
		}

		remaining, err := c.ListPods(context.Background(), kube.TagSelector("tag-1"))
		if err != nil {
			t.Fatalf("ListPods failed: %v", err)
		}
		if len(remaining) != 0 {
			t.Errorf("pods left after delete: %v", podNames(remaining))
		}
		others, err := c.ListPods(context.Background(), kube.TagSelector("tag-2"))
		if err != nil {
			t.Fatalf("ListPods failed: %v", err)
		}
		if diff := cmp.Diff([]string{"driver-2"}, podNames(others)); diff != "" {
			t.Errorf("unrelated pods mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("no matching pods", func(t *testing.T) {
		t.Parallel()

		c, _ := newCluster()
		if c.DeleteByTag(context.Background(), "tag-1") {
			t.Error("DeleteByTag reported success with nothing to delete")
		}
	})

	t.Run("delete failure", func(t *testing.T) {
		t.Parallel()

		c, cs := newCluster(testutil.DriverPod("driver-1", "tag-1", "spark-app-42", corev1.PodRunning))
		testutil.FailOnVerb(cs, "delete", "pods", testutil.ErrInjected)

		if c.DeleteByTag(context.Background(), "tag-1") {
			t.Error("DeleteByTag reported success despite a failing delete")
		}
	})
}

func TestDeletePod(t *testing.T) {
	t.Parallel()

	c, _ := newCluster(testutil.DriverPod("driver-1", "tag-1", "spark-app-42", corev1.PodRunning))

	if !c.DeletePod(context.Background(), "driver-1") {
		t.Error("DeletePod failed for an existing pod")
	}
	// Deleting an already absent pod is fine.
	if !c.DeletePod(context.Background(), "driver-1") {
		t.Error("DeletePod failed for an absent pod")
	}
}

func TestNamespace(t *testing.T) {
	t.Parallel()

	if got := kube.Namespace("spark-jobs"); got != "spark-jobs" {
		t.Errorf("explicit namespace mismatch: got %q", got)
	}
	if got := kube.Namespace(""); got == "" {
		t.Error("namespace fallback returned empty")
	}
}
