package kube

import (
	"bufio"
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/utils/ptr"
)

// ClusterClient is the narrow slice of the Kubernetes API the monitor
// consumes. Every call is an independent, retriable request; the client
// holds no state and is safe for concurrent use from any number of
// monitors plus the leak sweeper.
type ClusterClient interface {
	// ListDrivers returns all Spark driver pods in the namespace.
	ListDrivers(ctx context.Context) ([]corev1.Pod, error)

	// ListPods returns the pods matching the given label selector.
	ListPods(ctx context.Context, selector string) ([]corev1.Pod, error)

	// TailLog returns up to tailLines trailing log lines of the pod.
	TailLog(ctx context.Context, podName string, tailLines int) ([]string, error)

	// DeleteByTag deletes every pod of the application with the given tag.
	// Best effort; reports whether all matched pods were deleted.
	DeleteByTag(ctx context.Context, tag string) bool

	// DeletePod deletes a single pod. Best effort.
	DeletePod(ctx context.Context, podName string) bool
}

type clusterClient struct {
	clientset kubernetes.Interface
	namespace string
}

// NewClusterClient wraps a clientset as the namespace-scoped capability the
// monitor engine consumes.
func NewClusterClient(clientset kubernetes.Interface, namespace string) ClusterClient {
	return &clusterClient{clientset: clientset, namespace: namespace}
}

func (c *clusterClient) ListDrivers(ctx context.Context) ([]corev1.Pod, error) {
	return c.ListPods(ctx, DriverSelector())
}

func (c *clusterClient) ListPods(ctx context.Context, selector string) ([]corev1.Pod, error) {
	list, err := c.clientset.CoreV1().Pods(c.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods with selector %q: %w", selector, err)
	}
	return list.Items, nil
}

func (c *clusterClient) TailLog(ctx context.Context, podName string, tailLines int) ([]string, error) {
	req := c.clientset.CoreV1().Pods(c.namespace).GetLogs(podName, &corev1.PodLogOptions{
		TailLines: ptr.To(int64(tailLines)),
	})
	stream, err := req.Stream(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to stream logs of pod %q: %w", podName, err)
	}
	defer stream.Close()

	var lines []string
	scanner := bufio.NewScanner(stream)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return lines, fmt.Errorf("failed to read logs of pod %q: %w", podName, err)
	}
	return lines, nil
}

func (c *clusterClient) DeleteByTag(ctx context.Context, tag string) bool {
	pods, err := c.ListPods(ctx, TagSelector(tag))
	if err != nil {
		return false
	}
	ok := len(pods) > 0
	for _, pod := range pods {
		if !c.DeletePod(ctx, pod.Name) {
			ok = false
		}
	}
	return ok
}

func (c *clusterClient) DeletePod(ctx context.Context, podName string) bool {
	err := c.clientset.CoreV1().Pods(c.namespace).Delete(ctx, podName, metav1.DeleteOptions{})
	return err == nil || apierrors.IsNotFound(err)
}
