package config

import "fmt"

// Role is the cluster role a node is provisioned for.
type Role string

const (
	// RoleControlPlane runs the API server, scheduler and etcd.
	RoleControlPlane Role = "control-plane"
	// RoleWorker runs workloads and joins the control plane.
	RoleWorker Role = "worker"
)

// Roles lists every role a NodeSpec may declare, in bootstrap order.
var Roles = []Role{RoleControlPlane, RoleWorker}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r == RoleControlPlane || r == RoleWorker
}

// Config holds the application configuration.
type Config struct {
	ClusterName string `yaml:"cluster_name"`
	HCloudToken string `yaml:"hcloud_token"`
	Location    string `yaml:"location"` // e.g. nbg1, fsn1, hel1

	SSH        SSHConfig        `yaml:"ssh"`
	Machine    MachineProfile   `yaml:"machine"`
	Network    NetworkConfig    `yaml:"network"`
	Kubernetes KubernetesConfig `yaml:"kubernetes"`
	Overlay    OverlayConfig    `yaml:"overlay"`

	// Parallelism bounds concurrent per-node work within a stage.
	// Default: 5
	Parallelism int `yaml:"parallelism"`

	// KubeconfigPath is where the exported admin kubeconfig is written locally.
	// Default: "kubeconfig"
	KubeconfigPath string `yaml:"kubeconfig_path"`

	// Nodes is the static, ordered node list. Exactly one node must have
	// the control-plane role.
	Nodes []NodeSpec `yaml:"nodes"`
}

// NodeSpec declares a node before provisioning. It is never mutated.
type NodeSpec struct {
	Name string `yaml:"name"`
	Role Role   `yaml:"role"`
}

func (n NodeSpec) String() string {
	return fmt.Sprintf("%s (%s)", n.Name, n.Role)
}

// SSHConfig controls remote execution on provisioned nodes.
type SSHConfig struct {
	User string `yaml:"user"`

	// PrivateKeyPath points at a PEM private key. A new RSA key is
	// generated at this path when the file does not exist.
	PrivateKeyPath string `yaml:"private_key_path"`
}

// MachineProfile is the fixed profile every server is created with.
type MachineProfile struct {
	Image      string `yaml:"image"`
	ServerType string `yaml:"server_type"`

	// Preemptible marks servers as reclaimable. Hetzner Cloud has no spot
	// scheduling class, so the flag is recorded as a server label only.
	Preemptible bool `yaml:"preemptible"`

	PublicIPv4 *bool `yaml:"public_ipv4"`
	PublicIPv6 *bool `yaml:"public_ipv6"`
}

// NetworkConfig describes the private network servers are attached to.
type NetworkConfig struct {
	IPRange string `yaml:"ip_range"`
	Zone    string `yaml:"zone"`

	// PrivateRange filters the control-plane's host addresses when
	// selecting the join endpoint. The first address inside it wins.
	PrivateRange string `yaml:"private_range"`
}

// KubernetesConfig pins the cluster tooling.
type KubernetesConfig struct {
	// Version is the kubelet/kubeadm/kubectl version, e.g. "1.31.4".
	Version string `yaml:"version"`
	// PackageRevision is the Debian package revision suffix, e.g. "1.1".
	PackageRevision string `yaml:"package_revision"`
	// PodNetworkCIDR is passed to kubeadm init.
	PodNetworkCIDR string `yaml:"pod_network_cidr"`
}

// OverlayConfig holds the version-pinned pod network manifest URLs.
type OverlayConfig struct {
	RBACURL    string `yaml:"rbac_url"`
	NetworkURL string `yaml:"network_url"`
}

// NodesByRole returns the node specs declaring role, in declaration order.
func (c *Config) NodesByRole(role Role) []NodeSpec {
	var out []NodeSpec
	for _, n := range c.Nodes {
		if n.Role == role {
			out = append(out, n)
		}
	}
	return out
}

// PublicIPv4Enabled reports whether servers get a public IPv4 address.
func (m MachineProfile) PublicIPv4Enabled() bool {
	return m.PublicIPv4 == nil || *m.PublicIPv4
}

// PublicIPv6Enabled reports whether servers get a public IPv6 address.
func (m MachineProfile) PublicIPv6Enabled() bool {
	return m.PublicIPv6 != nil && *m.PublicIPv6
}
