package orchestration

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/hkube/internal/config"
	"github.com/imamik/hkube/internal/kubeadm"
	"github.com/imamik/hkube/internal/manifest"
	"github.com/imamik/hkube/internal/provisioning"
	testutil "github.com/imamik/hkube/internal/testing"
)

const token = "abcdef.0123456789abcdef"

type staticManifests struct {
	mu      sync.Mutex
	fetched []string
}

func (s *staticManifests) Fetch(_ context.Context, name, url string) (*manifest.Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetched = append(s.fetched, name)
	return &manifest.Manifest{
		Name:    name,
		URL:     url,
		Data:    []byte("apiVersion: v1\nkind: Namespace\nmetadata:\n  name: " + name + "\n"),
		Objects: []manifest.ObjectRef{{APIVersion: "v1", Kind: "Namespace", Name: name}},
	}, nil
}

type harness struct {
	cfg       *config.Config
	infra     *testutil.MockProvider
	conn      *testutil.FakeConnector
	manifests *staticManifests
	port      int
	hash      string
}

func listen(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l.Addr().(*net.TCPAddr).Port
}

// newHarness scripts a fresh cluster whose nodes all live on 127.0.0.1.
func newHarness(t *testing.T, workers ...string) *harness {
	t.Helper()
	cfg := testutil.NewConfigBuilder().WithWorkers(workers...).Build()

	fixture := testutil.NewInfraFixture(cfg)
	for i, n := range cfg.Nodes {
		fixture.WithAddress(n.Name, "127.0.0.1", "10.0.0."+string(rune('2'+i)))
	}

	conn := testutil.NewFakeConnector()
	ca := testutil.CACertPEM(t)
	hash, err := kubeadm.DiscoveryHash(ca)
	require.NoError(t, err)

	conn.Executor("m1").
		Once("sudo -n kubectl --kubeconfig /etc/kubernetes/admin.conf cluster-info", testutil.Response{Code: 1}).
		On("printenv HOME", testutil.Response{Stdout: "/root\n"}).
		On("id -u", testutil.Response{Stdout: "0\n"}).
		On("id -g", testutil.Response{Stdout: "0\n"}).
		On("hostname -I", testutil.Response{Stdout: "127.0.0.1 10.0.0.2\n"}).
		On("sudo -n kubeadm token create", testutil.Response{Stdout: token + "\n"}).
		SetFile(kubeadm.AdminKubeconfig, testutil.Kubeconfig("https://10.0.0.2:6443")).
		SetFile(kubeadm.CACertPath, ca)
	for _, n := range cfg.Nodes {
		ex := conn.Executor(n.Name).On("containerd config default", testutil.Response{Stdout: "SystemdCgroup = false\n"})
		if n.Role == config.RoleWorker {
			ex.On("sudo -n test -f /etc/kubernetes/kubelet.conf", testutil.Response{Code: 1})
		}
	}

	return &harness{
		cfg:       cfg,
		infra:     fixture.SuccessfulProvisioning(),
		conn:      conn,
		manifests: &staticManifests{},
		port:      listen(t),
		hash:      hash,
	}
}

func (h *harness) bootstrapper(opts ...Option) *Bootstrapper {
	timeouts := &config.Timeouts{
		ServerCreate:      time.Minute,
		ServerIP:          time.Second,
		Readiness:         2 * time.Second,
		PortPoll:          20 * time.Millisecond,
		DialTimeout:       200 * time.Millisecond,
		ManifestFetch:     time.Second,
		RetryMaxAttempts:  1,
		RetryInitialDelay: time.Millisecond,
	}
	opts = append([]Option{
		WithTimeouts(timeouts),
		WithSSHPort(h.port),
		WithPublicKey("ssh-rsa AAAA hkube"),
	}, opts...)
	return NewBootstrapper(h.cfg, h.infra, h.conn, h.manifests, opts...)
}

func TestBootstrapper_Phases(t *testing.T) {
	t.Parallel()
	b := NewBootstrapper(testutil.NewConfigBuilder().Build(), nil, nil, nil)

	names := make([]string, 0, 7)
	for _, p := range b.Phases() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"validation", "compute", "readiness", "roles", "prepare", "controlplane", "join"}, names)
}

func TestBootstrapper_EndToEnd(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "w1")
	metrics := provisioning.NewMetrics(h.cfg.ClusterName)

	outcome, err := h.bootstrapper(WithMetrics(metrics)).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"control-plane": {"m1"}, "worker": {"w1"}}, outcome.Roles)
	assert.Equal(t, []string{"127.0.0.1"}, outcome.Addresses["worker"])

	m1 := h.conn.Executor("m1")
	assert.True(t, m1.Ran("sudo -n kubeadm init --pod-network-cidr=192.168.0.0/16 --apiserver-advertise-address=10.0.0.2"))

	require.NotNil(t, outcome.JoinCredential)
	assert.Equal(t, "10.0.0.2:6443", outcome.JoinCredential.Endpoint)
	assert.Equal(t, token, outcome.JoinCredential.Token)
	assert.Equal(t, h.hash, outcome.JoinCredential.CACertHash)
	assert.True(t, h.conn.Executor("w1").Ran(
		"sudo -n kubeadm join 10.0.0.2:6443 --token "+token+" --discovery-token-ca-cert-hash "+h.hash))
	assert.Equal(t, provisioning.JoinStatusJoined, outcome.Joins["w1"])

	server, err := kubeadm.ValidateKubeconfig(outcome.Kubeconfig)
	require.NoError(t, err)
	assert.Equal(t, "https://127.0.0.1:6443", server)
	assert.Equal(t, []string{"rbac", "network"}, h.manifests.fetched)
	assert.Empty(t, outcome.Failures)

	for _, n := range []string{"m1", "w1"} {
		assert.True(t, h.conn.Executor(n).Ran("sudo -n apt-mark hold kubelet kubeadm kubectl"), n)
	}
	for _, target := range h.conn.Targets() {
		assert.Equal(t, "127.0.0.1", target.Address)
	}

	families, err := metrics.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestBootstrapper_RerunIsConvergent(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "w1")
	b := h.bootstrapper()

	_, err := b.Run(context.Background())
	require.NoError(t, err)
	h.conn.Executor("w1").On("sudo -n test -f /etc/kubernetes/kubelet.conf", testutil.Response{})

	outcome, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, h.conn.Executor("m1").Count("sudo -n kubeadm init"))
	assert.Equal(t, 1, h.conn.Executor("w1").Count("sudo -n kubeadm join"))
	assert.Equal(t, provisioning.JoinStatusAlreadyJoined, outcome.Joins["w1"])
}

func TestBootstrapper_PartialSuccess(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "w1", "w2")
	h.conn.Executor("w2").On("sudo -n env DEBIAN_FRONTEND=noninteractive apt-get upgrade", testutil.Response{Code: 100, Stderr: "dpkg was interrupted"})

	outcome, err := h.bootstrapper().Run(context.Background())

	require.Error(t, err)
	var failures provisioning.NodeErrors
	require.ErrorAs(t, err, &failures)
	assert.Equal(t, []string{"w2"}, failures.Nodes())
	assert.ErrorIs(t, err, provisioning.ErrPreparation)

	require.NotNil(t, outcome)
	assert.Equal(t, provisioning.JoinStatusJoined, outcome.Joins["w1"])
	assert.Equal(t, provisioning.JoinStatusSkipped, outcome.Joins["w2"])
	assert.False(t, h.conn.Executor("w2").Ran("sudo -n kubeadm join"))
	assert.Contains(t, outcome.Summary(), "failed (prepare)")
}

func TestBootstrapper_ReadinessTimeoutAborts(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "w1")
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	h.port = l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	outcome, err := h.bootstrapper().Run(context.Background())

	require.ErrorIs(t, err, provisioning.ErrReadinessTimeout)
	assert.Contains(t, err.Error(), "readiness phase failed")
	assert.Len(t, outcome.Nodes, 2)
	assert.Empty(t, h.conn.Executor("m1").Commands())
}

func TestBootstrapper_InvalidConfigAborts(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.cfg.Nodes = append(h.cfg.Nodes, config.NodeSpec{Name: "m2", Role: config.RoleControlPlane})

	_, err := h.bootstrapper().Run(context.Background())

	require.ErrorIs(t, err, provisioning.ErrConfiguration)
	h.infra.AssertNumberOfCalls(t, "EnsureServer", 0)
}

func TestOutcome_Summary(t *testing.T) {
	t.Parallel()
	o := &Outcome{
		Nodes: []provisioning.ProvisionedNode{
			{Spec: config.NodeSpec{Name: "m1", Role: config.RoleControlPlane}, ExternalAddress: "203.0.113.10", InternalAddress: "10.0.0.2"},
			{Spec: config.NodeSpec{Name: "w1", Role: config.RoleWorker}, ExternalAddress: "203.0.113.11", InternalAddress: "10.0.0.3"},
		},
		JoinCredential: &provisioning.ClusterJoinCredential{Endpoint: "10.0.0.2:6443", Token: token},
		Kubeconfig:     []byte("x"),
		Joins:          map[string]provisioning.JoinStatus{"w1": provisioning.JoinStatusJoined},
	}

	s := o.Summary()

	assert.Contains(t, s, "m1")
	assert.Contains(t, s, "running")
	assert.Contains(t, s, "joined")
	assert.Contains(t, s, "join endpoint: 10.0.0.2:6443")
	assert.NotContains(t, s, token)
}
