package testing

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/mock"

	"github.com/imamik/hkube/internal/config"
	hcloud_internal "github.com/imamik/hkube/internal/platform/hcloud"
	"github.com/imamik/hkube/internal/util/naming"
)

// FixtureNetworkID is the ID of the network the fixture provider returns.
const FixtureNetworkID int64 = 7

// InfraFixture provides a MockProvider pre-configured for a successful run.
// Servers are numbered in the order they are first ensured; node i gets the
// public address 203.0.113.(10+i) and the private address 10.0.0.(2+i)
// unless overridden with WithAddress.
type InfraFixture struct {
	mock *MockProvider

	mu        sync.Mutex
	cluster   string
	addresses map[string][2]string
	ids       map[string]int64
}

// NewInfraFixture creates a fixture for cfg.
func NewInfraFixture(cfg *config.Config) *InfraFixture {
	f := &InfraFixture{
		mock:      &MockProvider{},
		cluster:   cfg.ClusterName,
		addresses: make(map[string][2]string),
		ids:       make(map[string]int64),
	}
	for i, n := range cfg.Nodes {
		f.addresses[naming.Server(cfg.ClusterName, n.Name)] = [2]string{
			fmt.Sprintf("203.0.113.%d", 10+i),
			fmt.Sprintf("10.0.0.%d", 2+i),
		}
		f.ids[naming.Server(cfg.ClusterName, n.Name)] = int64(100 + i)
	}
	return f
}

// Mock returns the underlying MockProvider for custom expectations.
func (f *InfraFixture) Mock() *MockProvider {
	return f.mock
}

// WithAddress overrides the public and private address of node.
func (f *InfraFixture) WithAddress(node, public, private string) *InfraFixture {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addresses[naming.Server(f.cluster, node)] = [2]string{public, private}
	return f
}

// SuccessfulProvisioning registers expectations for a run where every
// provider call succeeds. Returns the mock for chaining.
func (f *InfraFixture) SuccessfulProvisioning() *MockProvider {
	network := &hcloud.Network{ID: FixtureNetworkID, Name: f.cluster}

	f.mock.On("EnsureSSHKey", mock.Anything, naming.SSHKey(f.cluster), mock.Anything, mock.Anything).
		Return(&hcloud.SSHKey{ID: 3, Name: naming.SSHKey(f.cluster)}, nil)
	f.mock.On("EnsureNetwork", mock.Anything, naming.Network(f.cluster), mock.Anything, mock.Anything).
		Return(network, nil)
	f.mock.On("EnsureSubnet", mock.Anything, network, mock.Anything, mock.Anything).
		Return(nil)
	f.mock.On("EnsureFirewall", mock.Anything, naming.Firewall(f.cluster), mock.Anything, mock.Anything, mock.Anything).
		Return(&hcloud.Firewall{ID: 5, Name: naming.Firewall(f.cluster)}, nil)
	f.mock.On("EnsureServer", mock.Anything, mock.Anything).
		Return(func(_ context.Context, opts hcloud_internal.ServerCreateOpts) *hcloud.Server {
			return &hcloud.Server{ID: f.id(opts.Name), Name: opts.Name, Labels: opts.Labels, Status: hcloud.ServerStatusRunning}
		}, nil)
	f.mock.On("GetServerByName", mock.Anything, mock.Anything).
		Return(func(_ context.Context, name string) *hcloud.Server { return f.Server(name) }, nil)

	return f.mock
}

// Server returns the fully addressed server the fixture reports for name.
func (f *InfraFixture) Server(name string) *hcloud.Server {
	f.mu.Lock()
	addrs := f.addresses[name]
	f.mu.Unlock()

	server := &hcloud.Server{ID: f.id(name), Name: name, Status: hcloud.ServerStatusRunning}
	if addrs[0] != "" {
		server.PublicNet.IPv4.IP = net.ParseIP(addrs[0])
	}
	if addrs[1] != "" {
		server.PrivateNet = []hcloud.ServerPrivateNet{{
			Network: &hcloud.Network{ID: FixtureNetworkID},
			IP:      net.ParseIP(addrs[1]),
		}}
	}
	return server
}

func (f *InfraFixture) id(name string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.ids[name]; ok {
		return id
	}
	id := int64(100 + len(f.ids))
	f.ids[name] = id
	return id
}
