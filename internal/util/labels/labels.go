package labels

import "strconv"

// Standard label keys for Hetzner Cloud resources.
const (
	// KeyCluster identifies which cluster a resource belongs to
	KeyCluster = "hkube.io/cluster"

	// KeyRole identifies the role of a server (control-plane, worker)
	KeyRole = "hkube.io/role"

	// KeyNode identifies the declared node name of a server
	KeyNode = "hkube.io/node"

	// KeyPreemptible records the machine profile's preemptible flag
	KeyPreemptible = "hkube.io/preemptible"

	// KeyManagedBy identifies the management system
	KeyManagedBy = "hkube.io/managed-by"
)

// ManagedByHkube is the KeyManagedBy value for resources created by this tool.
const ManagedByHkube = "hkube"

// LabelBuilder provides a fluent interface for building Hetzner Cloud resource labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder with the cluster name pre-set.
func NewLabelBuilder(clusterName string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyCluster:   clusterName,
			KeyManagedBy: ManagedByHkube,
		},
	}
}

// WithRole adds a role label (e.g., "control-plane", "worker").
func (lb *LabelBuilder) WithRole(role string) *LabelBuilder {
	lb.labels[KeyRole] = role
	return lb
}

// WithNode adds the declared node name.
func (lb *LabelBuilder) WithNode(name string) *LabelBuilder {
	lb.labels[KeyNode] = name
	return lb
}

// WithPreemptible records the preemptible flag.
func (lb *LabelBuilder) WithPreemptible(preemptible bool) *LabelBuilder {
	lb.labels[KeyPreemptible] = strconv.FormatBool(preemptible)
	return lb
}

// Merge adds all labels from the provided map.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// SelectorForCluster returns a label selector string for all resources in a cluster.
func SelectorForCluster(clusterName string) string {
	return KeyCluster + "=" + clusterName
}
