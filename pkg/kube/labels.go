package kube

import "fmt"

// Label keys and values used by Spark on Kubernetes submissions.
//
// spark-submit stamps every pod of an application with these labels; the
// monitor relies on them to correlate pods back to the submission before
// the cluster-assigned application ID is known.
const (
	// LabelAppTag carries the caller-chosen correlation tag, set at
	// submission time and immutable afterwards.
	LabelAppTag = "spark-app-tag"

	// LabelAppID carries the cluster-assigned application ID. It is only
	// readable once the driver pod exists.
	LabelAppID = "spark-app-selector"

	// LabelRole distinguishes the driver from its executors.
	LabelRole = "spark-role"

	// RoleDriver is the LabelRole value of the coordinating pod.
	RoleDriver = "driver"

	// RoleExecutor is the LabelRole value of worker pods.
	RoleExecutor = "executor"
)

// DriverSelector returns a label selector matching all driver pods in the
// namespace, regardless of application.
func DriverSelector() string {
	return fmt.Sprintf("%s=%s", LabelRole, RoleDriver)
}

// TagSelector returns a label selector matching every pod of the
// application submitted with the given tag.
func TagSelector(tag string) string {
	return fmt.Sprintf("%s=%s", LabelAppTag, tag)
}

// TagDriverSelector returns a label selector matching only the driver pod
// of the application submitted with the given tag.
func TagDriverSelector(tag string) string {
	return fmt.Sprintf("%s=%s,%s=%s", LabelAppTag, tag, LabelRole, RoleDriver)
}
