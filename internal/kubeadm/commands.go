package kubeadm

import (
	"net"
	"strconv"

	"github.com/imamik/hkube/internal/remote"
)

// Well-known paths on a kubeadm node.
const (
	AdminKubeconfig   = "/etc/kubernetes/admin.conf"
	KubeletKubeconfig = "/etc/kubernetes/kubelet.conf"
	CACertPath        = "/etc/kubernetes/pki/ca.crt"
)

// ClusterInfo probes the API server through the admin kubeconfig.
func ClusterInfo() remote.Command {
	return remote.Sudo("kubectl", "--kubeconfig", AdminKubeconfig, "cluster-info")
}

// InitOptions parameterize kubeadm init.
type InitOptions struct {
	PodNetworkCIDR string
	// ExtraSANs are added to the API server certificate, typically the public address.
	ExtraSANs []string
	// AdvertiseAddress is the address the API server listens on for cluster traffic.
	AdvertiseAddress string
}

// Init initializes the control plane.
func Init(opts InitOptions) remote.Command {
	args := []string{"kubeadm", "init", "--pod-network-cidr=" + opts.PodNetworkCIDR}
	if opts.AdvertiseAddress != "" {
		args = append(args, "--apiserver-advertise-address="+opts.AdvertiseAddress)
	}
	for _, san := range opts.ExtraSANs {
		args = append(args, "--apiserver-cert-extra-sans="+san)
	}
	return remote.Sudo(args...)
}

// TokenCreate mints a bootstrap token.
func TokenCreate() remote.Command {
	return remote.Sudo("kubeadm", "token", "create")
}

// Join joins a worker to the control plane at endpoint.
func Join(endpoint, token, caCertHash string) remote.Command {
	return remote.Sudo("kubeadm", "join", endpoint,
		"--token", token,
		"--discovery-token-ca-cert-hash", caCertHash)
}

// Apply applies a manifest file server-side.
func Apply(kubeconfig, path string) remote.Command {
	return remote.Sudo("kubectl", "--kubeconfig", kubeconfig, "apply", "--server-side", "--force-conflicts", "-f", path)
}

// HostAddresses lists the node's addresses.
func HostAddresses() remote.Command {
	return remote.Cmd("hostname", "-I")
}

// FileExists succeeds only when path exists.
func FileExists(path string) remote.Command {
	return remote.Sudo("test", "-f", path)
}

// Endpoint formats host:port for the API server.
func Endpoint(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
