package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{
		ClusterName: "demo",
		HCloudToken: "token",
		Nodes: []NodeSpec{
			{Name: "m1", Role: RoleControlPlane},
			{Name: "w1", Role: RoleWorker},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate(t *testing.T) {
	f := false

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing cluster name", mutate: func(c *Config) { c.ClusterName = "" }, wantErr: "cluster_name is required"},
		{name: "uppercase cluster name", mutate: func(c *Config) { c.ClusterName = "Demo" }, wantErr: "DNS label"},
		{name: "missing token", mutate: func(c *Config) { c.HCloudToken = "" }, wantErr: "hcloud_token is required"},
		{name: "bad location", mutate: func(c *Config) { c.Location = "mars1" }, wantErr: "invalid location"},
		{name: "bad zone", mutate: func(c *Config) { c.Network.Zone = "moon" }, wantErr: "invalid network zone"},
		{name: "bad ip range", mutate: func(c *Config) { c.Network.IPRange = "10.0.0.0" }, wantErr: "invalid ip_range"},
		{
			name:    "private range excludes network",
			mutate:  func(c *Config) { c.Network.PrivateRange = "172.16.0.0/12" },
			wantErr: "does not contain",
		},
		{name: "bad version", mutate: func(c *Config) { c.Kubernetes.Version = "1.31" }, wantErr: "MAJOR.MINOR.PATCH"},
		{
			name:    "pod cidr overlaps network",
			mutate:  func(c *Config) { c.Kubernetes.PodNetworkCIDR = "10.0.0.0/8" },
			wantErr: "overlaps",
		},
		{name: "plain http manifest", mutate: func(c *Config) { c.Overlay.RBACURL = "http://example.com/a.yaml" }, wantErr: "https"},
		{name: "no nodes", mutate: func(c *Config) { c.Nodes = nil }, wantErr: "at least one node"},
		{
			name:    "duplicate node",
			mutate:  func(c *Config) { c.Nodes = append(c.Nodes, NodeSpec{Name: "w1", Role: RoleWorker}) },
			wantErr: "duplicate node name",
		},
		{
			name:    "invalid role",
			mutate:  func(c *Config) { c.Nodes[1].Role = "etcd" },
			wantErr: "invalid role",
		},
		{
			name:    "no control plane",
			mutate:  func(c *Config) { c.Nodes[0].Role = RoleWorker },
			wantErr: "exactly one control-plane node",
		},
		{
			name: "two control planes",
			mutate: func(c *Config) {
				c.Nodes = append(c.Nodes, NodeSpec{Name: "m2", Role: RoleControlPlane})
			},
			wantErr: "got 2",
		},
		{
			name: "no public address",
			mutate: func(c *Config) {
				c.Machine.PublicIPv4 = &f
				c.Machine.PublicIPv6 = &f
			},
			wantErr: "public_ipv4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
