package testing

import (
	"context"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/mock"

	hcloud_internal "github.com/imamik/hkube/internal/platform/hcloud"
)

// MockProvider is a testify mock of hcloud_internal.Provider.
type MockProvider struct {
	mock.Mock
}

var _ hcloud_internal.Provider = (*MockProvider)(nil)

// EnsureSSHKey mocks the SSH key upload.
func (m *MockProvider) EnsureSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error) {
	args := m.Called(ctx, name, publicKey, labels)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hcloud.SSHKey), args.Error(1)
}

// EnsureNetwork mocks network creation.
func (m *MockProvider) EnsureNetwork(ctx context.Context, name, ipRange string, labels map[string]string) (*hcloud.Network, error) {
	args := m.Called(ctx, name, ipRange, labels)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hcloud.Network), args.Error(1)
}

// EnsureSubnet mocks subnet creation.
func (m *MockProvider) EnsureSubnet(ctx context.Context, network *hcloud.Network, ipRange, networkZone string) error {
	args := m.Called(ctx, network, ipRange, networkZone)
	return args.Error(0)
}

// EnsureFirewall mocks firewall creation.
func (m *MockProvider) EnsureFirewall(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string, applyToLabelSelector string) (*hcloud.Firewall, error) {
	args := m.Called(ctx, name, rules, labels, applyToLabelSelector)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hcloud.Firewall), args.Error(1)
}

// EnsureServer mocks server creation.
func (m *MockProvider) EnsureServer(ctx context.Context, opts hcloud_internal.ServerCreateOpts) (*hcloud.Server, error) {
	args := m.Called(ctx, opts)
	if fn, ok := args.Get(0).(func(context.Context, hcloud_internal.ServerCreateOpts) *hcloud.Server); ok {
		return fn(ctx, opts), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hcloud.Server), args.Error(1)
}

// GetServerByName mocks the server lookup.
func (m *MockProvider) GetServerByName(ctx context.Context, name string) (*hcloud.Server, error) {
	args := m.Called(ctx, name)
	if fn, ok := args.Get(0).(func(context.Context, string) *hcloud.Server); ok {
		return fn(ctx, name), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hcloud.Server), args.Error(1)
}
