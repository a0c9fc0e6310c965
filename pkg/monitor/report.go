package monitor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"

	"github.com/batchfabric/spark-app-monitor/pkg/kube"
)

// StateUnknown is the report state when the cluster could not be queried or
// no driver pod exists yet. It is not a cluster phase: the monitor treats it
// as "no information this cycle" and keeps its current state.
const StateUnknown = "unknown"

// sparkUIPort is the in-cluster Spark UI port on the driver pod.
const sparkUIPort = 4040

// ApplicationInfo is an immutable snapshot of volatile application metadata,
// compared by value across polls to detect change.
type ApplicationInfo struct {
	TrackingURL string
}

// ApplicationReport is one poll's view of an application: the raw cluster
// state of the driver, the tail of its log, the diagnostics rendered from
// all pods, and the transient tracking URL. Reports are never persisted.
type ApplicationReport struct {
	State       string
	AppID       string
	LogLines    []string
	Diagnostics []string
	TrackingURL string
}

// assembleReport queries the cluster for every pod of the tagged
// application and builds its report. It never fails: any API error, or a
// missing driver, yields the degenerate report with StateUnknown, an empty
// log and empty diagnostics. A log-fetch failure is captured as text inside
// the report instead of propagating.
func assembleReport(ctx context.Context, c kube.ClusterClient, tag string, logSize int) ApplicationReport {
	pods, err := c.ListPods(ctx, kube.TagSelector(tag))
	if err != nil {
		return ApplicationReport{State: StateUnknown}
	}

	driver, executors := partitionByRole(pods)
	if driver == nil {
		return ApplicationReport{State: StateUnknown}
	}

	logLines, err := c.TailLog(ctx, driver.Name, logSize)
	if err != nil {
		logLines = []string{fmt.Sprintf("Error fetching driver log: %v", err)}
	}

	var trackingURL string
	if driver.Status.PodIP != "" {
		trackingURL = fmt.Sprintf("http://%s:%d", driver.Status.PodIP, sparkUIPort)
	}

	return ApplicationReport{
		State:       string(driver.Status.Phase),
		AppID:       driver.Labels[kube.LabelAppID],
		LogLines:    logLines,
		Diagnostics: BuildDiagnostics(driver, executors),
		TrackingURL: trackingURL,
	}
}

// partitionByRole splits pods into the driver and its executors, by the
// spark-role label. The first driver wins if the tag was duplicated;
// executors are sorted by name for stable diagnostics.
func partitionByRole(pods []corev1.Pod) (*corev1.Pod, []corev1.Pod) {
	var driver *corev1.Pod
	var executors []corev1.Pod
	for i := range pods {
		switch pods[i].Labels[kube.LabelRole] {
		case kube.RoleDriver:
			if driver == nil {
				driver = &pods[i]
			}
		case kube.RoleExecutor:
			executors = append(executors, pods[i])
		}
	}
	sort.Slice(executors, func(i, j int) bool {
		return executors[i].Name < executors[j].Name
	})
	return driver, executors
}

// BuildDiagnostics renders one human-readable status block per pod, driver
// first, executors after in name order. The text is diagnostic output, not
// a compatibility contract.
func BuildDiagnostics(driver *corev1.Pod, executors []corev1.Pod) []string {
	var out []string
	if driver != nil {
		out = append(out, DescribePod(driver)...)
	}
	for i := range executors {
		out = append(out, DescribePod(&executors[i])...)
	}
	return out
}

// DescribePod renders a single pod's status block. A nil pod renders the
// fixed "unknown" placeholder.
func DescribePod(pod *corev1.Pod) []string {
	if pod == nil {
		return []string{"unknown"}
	}

	lines := []string{
		fmt.Sprintf("%s/%s:", pod.Namespace, pod.Name),
		fmt.Sprintf("\tnode: %s", pod.Spec.NodeName),
		fmt.Sprintf("\thostname: %s", pod.Spec.Hostname),
		fmt.Sprintf("\tpodIp: %s", pod.Status.PodIP),
		fmt.Sprintf("\tstartTime: %s", formatStartTime(pod)),
		fmt.Sprintf("\tphase: %s", pod.Status.Phase),
		fmt.Sprintf("\treason: %s", pod.Status.Reason),
		fmt.Sprintf("\tmessage: %s", pod.Status.Message),
		fmt.Sprintf("\tlabels: %s", formatLabels(pod.Labels)),
		"\tcontainers:",
	}
	for i := range pod.Spec.Containers {
		lines = append(lines, describeContainer(&pod.Spec.Containers[i])...)
	}
	lines = append(lines, "\tconditions:")
	for _, cond := range pod.Status.Conditions {
		lines = append(lines, fmt.Sprintf("\t\t%+v", cond))
	}
	return lines
}

func describeContainer(c *corev1.Container) []string {
	command := strings.Join(append(append([]string{}, c.Command...), c.Args...), " ")
	return []string{
		fmt.Sprintf("\t\t%s:", c.Name),
		fmt.Sprintf("\t\t\timage: %s", c.Image),
		fmt.Sprintf("\t\t\trequests: %s", formatResourceList(c.Resources.Requests)),
		fmt.Sprintf("\t\t\tlimits: %s", formatResourceList(c.Resources.Limits)),
		fmt.Sprintf("\t\t\tcommand: %s", command),
	}
}

func formatStartTime(pod *corev1.Pod) string {
	if pod.Status.StartTime == nil {
		return ""
	}
	return pod.Status.StartTime.String()
}

func formatLabels(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, labels[k]))
	}
	return strings.Join(parts, ",")
}

func formatResourceList(rl corev1.ResourceList) string {
	keys := make([]string, 0, len(rl))
	for k := range rl {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		q := rl[corev1.ResourceName(k)]
		parts = append(parts, fmt.Sprintf("%s=%s", k, q.String()))
	}
	return strings.Join(parts, ",")
}
