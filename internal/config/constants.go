package config

// Common port numbers used throughout the application.
const (
	// SSHPort is the port the readiness waiter and remote execution use.
	SSHPort = 22

	// KubeAPIPort is the standard Kubernetes API server port.
	KubeAPIPort = 6443
)

// Defaults applied by LoadFile when a field is left empty.
const (
	DefaultLocation       = "nbg1"
	DefaultImage          = "ubuntu-24.04"
	DefaultServerType     = "cx22"
	DefaultSSHUser        = "root"
	DefaultSSHKeyPath     = "hkube_id_rsa"
	DefaultNetworkRange   = "10.0.0.0/16"
	DefaultNetworkZone    = "eu-central"
	DefaultPrivateRange   = "10.0.0.0/8"
	DefaultPodNetworkCIDR = "192.168.0.0/16"
	DefaultKubeVersion    = "1.31.4"
	DefaultPackageRev     = "1.1"
	DefaultParallelism    = 5

	DefaultOverlayRBACURL    = "https://raw.githubusercontent.com/projectcalico/calico/v3.28.1/manifests/tigera-operator.yaml"
	DefaultOverlayNetworkURL = "https://raw.githubusercontent.com/projectcalico/calico/v3.28.1/manifests/custom-resources.yaml"
)
