// Package testutil provides pod fixtures and fake-clientset failure
// injection for monitor tests.
package testutil

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/batchfabric/spark-app-monitor/pkg/kube"
)

// Namespace is the namespace all fixtures live in.
const Namespace = "default"

// PodOption mutates a fixture pod before it is returned.
type PodOption func(*corev1.Pod)

// WithPodIP sets the pod's IP.
func WithPodIP(ip string) PodOption {
	return func(p *corev1.Pod) { p.Status.PodIP = ip }
}

// WithStartTime sets the pod's start time.
func WithStartTime(t metav1.Time) PodOption {
	return func(p *corev1.Pod) { p.Status.StartTime = &t }
}

// WithLabel adds one label.
func WithLabel(key, value string) PodOption {
	return func(p *corev1.Pod) { p.Labels[key] = value }
}

// DriverPod builds a Spark driver pod carrying the given tag and
// application ID, in the given phase.
func DriverPod(name, tag, appID string, phase corev1.PodPhase, opts ...PodOption) *corev1.Pod {
	pod := basePod(name, phase)
	pod.Labels = map[string]string{
		kube.LabelAppTag: tag,
		kube.LabelAppID:  appID,
		kube.LabelRole:   kube.RoleDriver,
	}
	for _, opt := range opts {
		opt(pod)
	}
	return pod
}

// ExecutorPod builds a Spark executor pod carrying the given tag.
func ExecutorPod(name, tag string, phase corev1.PodPhase, opts ...PodOption) *corev1.Pod {
	pod := basePod(name, phase)
	pod.Labels = map[string]string{
		kube.LabelAppTag: tag,
		kube.LabelRole:   kube.RoleExecutor,
	}
	for _, opt := range opts {
		opt(pod)
	}
	return pod
}

func basePod(name string, phase corev1.PodPhase) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: Namespace,
		},
		Spec: corev1.PodSpec{
			NodeName: "node-1",
			Containers: []corev1.Container{
				{
					Name:    "spark-kubernetes-driver",
					Image:   "spark:3.5.0",
					Command: []string{"driver"},
				},
			},
		},
		Status: corev1.PodStatus{Phase: phase},
	}
}

// ErrInjected is the error returned by the failure helpers.
var ErrInjected = fmt.Errorf("injected test error")

// FailOnVerb makes every matching API call on the fake clientset fail with
// err. verb and resource follow client-go reactor conventions, e.g.
// ("list", "pods").
func FailOnVerb(cs *fake.Clientset, verb, resource string, err error) {
	cs.PrependReactor(verb, resource, func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, err
	})
}

// FailAfterNCalls makes matching API calls fail with err after the first n
// calls have succeeded.
func FailAfterNCalls(cs *fake.Clientset, verb, resource string, n int, err error) {
	count := 0
	cs.PrependReactor(verb, resource, func(k8stesting.Action) (bool, runtime.Object, error) {
		count++
		if count > n {
			return true, nil, err
		}
		return false, nil, nil
	})
}
