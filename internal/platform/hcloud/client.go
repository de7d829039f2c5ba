package hcloud

import (
	"context"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// ServerCreateOpts holds the desired state of a single server.
type ServerCreateOpts struct {
	Name       string
	Image      string
	ServerType string
	Location   string
	SSHKey     *hcloud.SSHKey
	Network    *hcloud.Network
	Labels     map[string]string

	EnablePublicIPv4 bool
	EnablePublicIPv6 bool
}

// SSHKeyManager manages the SSH key injected into new servers.
type SSHKeyManager interface {
	EnsureSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error)
}

// NetworkManager manages the private network connecting the nodes.
type NetworkManager interface {
	EnsureNetwork(ctx context.Context, name, ipRange string, labels map[string]string) (*hcloud.Network, error)
	EnsureSubnet(ctx context.Context, network *hcloud.Network, ipRange, networkZone string) error
}

// FirewallManager manages the firewall guarding the nodes.
type FirewallManager interface {
	// EnsureFirewall converges rules and applies the firewall to every
	// server matching applyToLabelSelector.
	EnsureFirewall(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string, applyToLabelSelector string) (*hcloud.Firewall, error)
}

// ServerProvisioner manages cluster servers.
type ServerProvisioner interface {
	// EnsureServer creates the server or converges an existing one with the
	// same name: labels are updated, the network is attached and a stopped
	// server is powered on.
	EnsureServer(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error)
	// GetServerByName returns the server, or nil if it does not exist.
	GetServerByName(ctx context.Context, name string) (*hcloud.Server, error)
}

// Provider combines everything node provisioning needs from the cloud.
type Provider interface {
	SSHKeyManager
	NetworkManager
	FirewallManager
	ServerProvisioner
}
