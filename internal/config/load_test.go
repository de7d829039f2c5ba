package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
cluster_name: demo
hcloud_token: file-token
nodes:
  - name: m1
    role: control-plane
  - name: w1
    role: worker
`

func TestParse_AppliesDefaults(t *testing.T) {
	t.Setenv(TokenEnvVar, "")

	cfg, err := Parse([]byte(minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.ClusterName)
	assert.Equal(t, "file-token", cfg.HCloudToken)
	assert.Equal(t, DefaultLocation, cfg.Location)
	assert.Equal(t, DefaultImage, cfg.Machine.Image)
	assert.Equal(t, DefaultServerType, cfg.Machine.ServerType)
	assert.True(t, cfg.Machine.PublicIPv4Enabled())
	assert.False(t, cfg.Machine.PublicIPv6Enabled())
	assert.Equal(t, DefaultPodNetworkCIDR, cfg.Kubernetes.PodNetworkCIDR)
	assert.Equal(t, DefaultKubeVersion, cfg.Kubernetes.Version)
	assert.Equal(t, DefaultSSHUser, cfg.SSH.User)
	assert.Equal(t, DefaultParallelism, cfg.Parallelism)
	assert.Equal(t, DefaultOverlayRBACURL, cfg.Overlay.RBACURL)
	assert.Equal(t, DefaultOverlayNetworkURL, cfg.Overlay.NetworkURL)
	assert.Equal(t, []NodeSpec{{Name: "m1", Role: RoleControlPlane}, {Name: "w1", Role: RoleWorker}}, cfg.Nodes)
}

func TestParse_TokenFromEnvironment(t *testing.T) {
	t.Setenv(TokenEnvVar, "env-token")

	cfg, err := Parse([]byte(minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.HCloudToken)
}

func TestParse_StripsVersionPrefix(t *testing.T) {
	t.Setenv(TokenEnvVar, "")

	cfg, err := Parse([]byte(minimalConfig + "kubernetes:\n  version: v1.30.2\n"))
	require.NoError(t, err)
	assert.Equal(t, "1.30.2", cfg.Kubernetes.Version)
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	t.Setenv(TokenEnvVar, "")

	_, err := Parse([]byte(minimalConfig + "control_planes: 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "control_planes")
}

func TestLoadFile(t *testing.T) {
	t.Setenv(TokenEnvVar, "")
	path := filepath.Join(t.TempDir(), "cluster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalConfig), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Nodes, 2)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestNodesByRole(t *testing.T) {
	cfg := &Config{Nodes: []NodeSpec{
		{Name: "w2", Role: RoleWorker},
		{Name: "m1", Role: RoleControlPlane},
		{Name: "w1", Role: RoleWorker},
	}}

	assert.Equal(t, []NodeSpec{{Name: "w2", Role: RoleWorker}, {Name: "w1", Role: RoleWorker}}, cfg.NodesByRole(RoleWorker))
	assert.Len(t, cfg.NodesByRole(RoleControlPlane), 1)
	assert.Empty(t, cfg.NodesByRole(Role("etcd")))
}
