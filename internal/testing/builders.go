package testing

import (
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hkube/internal/config"
)

// ConfigBuilder provides a fluent interface for constructing test configs.
type ConfigBuilder struct {
	cfg config.Config
}

// NewConfigBuilder creates a ConfigBuilder for a one control-plane,
// one worker cluster with defaults applied.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		cfg: config.Config{
			ClusterName: "demo",
			HCloudToken: "test-token",
			Nodes: []config.NodeSpec{
				{Name: "m1", Role: config.RoleControlPlane},
				{Name: "w1", Role: config.RoleWorker},
			},
		},
	}
}

// WithClusterName sets the cluster name.
func (b *ConfigBuilder) WithClusterName(name string) *ConfigBuilder {
	b.cfg.ClusterName = name
	return b
}

// WithNodes replaces the node list.
func (b *ConfigBuilder) WithNodes(nodes ...config.NodeSpec) *ConfigBuilder {
	b.cfg.Nodes = append([]config.NodeSpec(nil), nodes...)
	return b
}

// WithWorkers keeps the control-plane node "m1" and declares the given workers.
func (b *ConfigBuilder) WithWorkers(names ...string) *ConfigBuilder {
	nodes := []config.NodeSpec{{Name: "m1", Role: config.RoleControlPlane}}
	for _, n := range names {
		nodes = append(nodes, config.NodeSpec{Name: n, Role: config.RoleWorker})
	}
	b.cfg.Nodes = nodes
	return b
}

// WithParallelism bounds per-node concurrency.
func (b *ConfigBuilder) WithParallelism(n int) *ConfigBuilder {
	b.cfg.Parallelism = n
	return b
}

// WithPreemptible sets the machine profile's preemptible flag.
func (b *ConfigBuilder) WithPreemptible(v bool) *ConfigBuilder {
	b.cfg.Machine.Preemptible = v
	return b
}

// WithPublicAddresses sets which public address families servers get.
func (b *ConfigBuilder) WithPublicAddresses(ipv4, ipv6 bool) *ConfigBuilder {
	b.cfg.Machine.PublicIPv4 = hcloud.Ptr(ipv4)
	b.cfg.Machine.PublicIPv6 = hcloud.Ptr(ipv6)
	return b
}

// Build applies defaults and returns a copy of the configuration.
func (b *ConfigBuilder) Build() *config.Config {
	cfg := b.cfg
	cfg.Nodes = append([]config.NodeSpec(nil), b.cfg.Nodes...)
	cfg.ApplyDefaults()
	return &cfg
}
