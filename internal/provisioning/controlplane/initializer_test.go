package controlplane

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

const (
	probeCmd      = "sudo -n kubectl --kubeconfig /etc/kubernetes/admin.conf cluster-info"
	initCmd       = "sudo -n kubeadm init"
	applyRBAC     = "sudo -n kubectl --kubeconfig /etc/kubernetes/admin.conf apply --server-side --force-conflicts -f /etc/hkube/manifests/rbac.yaml"
	applyNetwork  = "sudo -n kubectl --kubeconfig /etc/kubernetes/admin.conf apply --server-side --force-conflicts -f /etc/hkube/manifests/network.yaml"
	rbacYAML      = "apiVersion: v1\nkind: Namespace\nmetadata:\n  name: tigera-operator\n"
	networkYAML   = "apiVersion: operator.tigera.io/v1\nkind: Installation\nmetadata:\n  name: default\n"
	privateServer = "https://10.0.0.2:6443"
)

type fakeManifests struct {
	mu      sync.Mutex
	fetched []string
	fail    map[string]error
}

func (f *fakeManifests) Fetch(_ context.Context, name, url string) (*manifest.Manifest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, name)
	if err := f.fail[name]; err != nil {
		return nil, err
	}
	data := rbacYAML
	if name == "network" {
		data = networkYAML
	}
	return &manifest.Manifest{Name: name, URL: url, Data: []byte(data), Objects: []manifest.ObjectRef{{Kind: "x", Name: name}}}, nil
}

type recordingObserver struct {
	mu     sync.Mutex
	debug  []string
	events []provisioning.Event
}

func (r *recordingObserver) Printf(string, ...any) {}

func (r *recordingObserver) Debugf(format string, v ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debug = append(r.debug, fmt.Sprintf(format, v...))
}

func (r *recordingObserver) Event(e provisioning.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) Progress(string, int, int) {}

func (r *recordingObserver) WithFields(map[string]string) provisioning.Observer { return r }

type fixture struct {
	ctx       *provisioning.Context
	conn      *testutil.FakeConnector
	cp        *testutil.FakeExecutor
	manifests *fakeManifests
	observer  *recordingObserver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testutil.NewConfigBuilder().Build()
	conn := testutil.NewFakeConnector()
	manifests := &fakeManifests{fail: map[string]error{}}
	obs := &recordingObserver{}

	ctx := provisioning.NewContext(context.Background(), cfg, nil, conn, manifests)
	ctx.Observer = obs
	ctx.Timeouts.RetryMaxAttempts = 2
	ctx.Timeouts.RetryInitialDelay = time.Millisecond
	ctx.State.Nodes = []provisioning.ProvisionedNode{
		{Spec: config.NodeSpec{Name: "m1", Role: config.RoleControlPlane}, ExternalAddress: "203.0.113.10", InternalAddress: "10.0.0.2"},
		{Spec: config.NodeSpec{Name: "w1", Role: config.RoleWorker}, ExternalAddress: "203.0.113.11", InternalAddress: "10.0.0.3"},
	}
	ctx.State.Roles = provisioning.NewRoleGroup(ctx.State.Nodes)

	cp := conn.Executor("m1").
		SetFile(kubeadm.AdminKubeconfig, testutil.Kubeconfig(privateServer)).
		On("printenv HOME", testutil.Response{Stdout: "/home/ops\n"}).
		On("id -u", testutil.Response{Stdout: "1000\n"}).
		On("id -g", testutil.Response{Stdout: "1001\n"})

	return &fixture{ctx: ctx, conn: conn, cp: cp, manifests: manifests, observer: obs}
}

func (f *fixture) uninitialized() *fixture {
	f.cp.Once(probeCmd, testutil.Response{Code: 1, Stderr: "The connection to the server localhost:8080 was refused"})
	return f
}

func TestInitializer_Name(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "controlplane", NewInitializer().Name())
}

func TestInitializer_FreshNode(t *testing.T) {
	t.Parallel()
	f := newFixture(t).uninitialized()

	require.NoError(t, NewInitializer().Provision(f.ctx))

	assert.Equal(t, provisioning.ControlPlaneRunning, f.ctx.State.ControlPlaneStatus)
	assert.True(t, f.cp.Ran("sudo -n kubeadm init --pod-network-cidr=192.168.0.0/16 --apiserver-advertise-address=10.0.0.2 --apiserver-cert-extra-sans=203.0.113.10"))
	assert.True(t, f.cp.Ran("sudo -n install -D -m 0600 -o 1000 -g 1001 /etc/kubernetes/admin.conf /home/ops/.kube/config"))

	server, err := kubeadm.ValidateKubeconfig(f.ctx.State.Kubeconfig)
	require.NoError(t, err)
	assert.Equal(t, "https://203.0.113.10:6443", server)

	rbac, ok := f.cp.File("/etc/hkube/manifests/rbac.yaml")
	require.True(t, ok)
	assert.Equal(t, rbacYAML, string(rbac))
	_, ok = f.cp.File("/etc/hkube/manifests/network.yaml")
	require.True(t, ok)
	assert.Equal(t, []string{"rbac", "network"}, f.manifests.fetched)

	cmds := f.cp.Commands()
	assert.Less(t, indexOf(cmds, applyRBAC), indexOf(cmds, applyNetwork))
	assert.Less(t, indexOf(cmds, initCmd), indexOf(cmds, applyRBAC))
	assert.Empty(t, f.conn.Executor("w1").Commands())
}

func TestInitializer_ProbeFailureIsDebugOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t).uninitialized()

	require.NoError(t, NewInitializer().Provision(f.ctx))

	require.NotEmpty(t, f.observer.debug)
	assert.Contains(t, f.observer.debug[0], "uninitialized")
	for _, e := range f.observer.events {
		assert.NotEqual(t, provisioning.EventNodeFailed, e.Type)
		assert.NotEqual(t, provisioning.EventPhaseFailed, e.Type)
	}
}

func TestInitializer_RerunSkipsInit(t *testing.T) {
	t.Parallel()
	f := newFixture(t).uninitialized()

	require.NoError(t, NewInitializer().Provision(f.ctx))
	first := f.ctx.State.Kubeconfig
	require.NoError(t, NewInitializer().Provision(f.ctx))

	assert.Equal(t, 1, f.cp.Count(initCmd))
	assert.Equal(t, 2, f.cp.Count(probeCmd))
	assert.Equal(t, first, f.ctx.State.Kubeconfig)
	assert.Equal(t, 2, f.cp.Count("sudo -n install -D -m 0600"))
	assert.Equal(t, 2, f.cp.Count(applyNetwork))
}

func TestInitializer_RunningSkipsInit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	require.NoError(t, NewInitializer().Provision(f.ctx))

	assert.False(t, f.cp.Ran(initCmd))
	assert.Equal(t, provisioning.ControlPlaneRunning, f.ctx.State.ControlPlaneStatus)
}

func TestInitializer_InitFailureIsFatalWithoutRetry(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.cp.On(probeCmd, testutil.Response{Code: 1})
	f.cp.On(initCmd, testutil.Response{Code: 1, Stderr: "[ERROR Port-6443]: Port 6443 is in use"})

	err := NewInitializer().Provision(f.ctx)

	require.ErrorIs(t, err, provisioning.ErrInitialization)
	var nodeErr *provisioning.NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "m1", nodeErr.Node)
	assert.Equal(t, StepInit, nodeErr.Step)
	assert.Equal(t, 1, f.cp.Count(initCmd))
	assert.False(t, f.cp.Ran(applyRBAC))
	assert.Equal(t, provisioning.ControlPlaneUninitialized, f.ctx.State.ControlPlaneStatus)
}

func TestInitializer_ExportFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.cp.On("id -u", testutil.Response{Err: errors.New("session closed")})

	err := NewInitializer().Provision(f.ctx)

	var nodeErr *provisioning.NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, StepExport, nodeErr.Step)
	assert.Nil(t, f.ctx.State.Kubeconfig)
}

func TestInitializer_ManifestFetchFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.manifests.fail["network"] = errors.New("404 Not Found")

	err := NewInitializer().Provision(f.ctx)

	require.ErrorIs(t, err, provisioning.ErrManifestApply)
	assert.Contains(t, err.Error(), "network manifest")
	assert.True(t, f.cp.Ran(applyRBAC))
	assert.False(t, f.cp.Ran(applyNetwork))
}

func TestInitializer_ApplyRetriesTransientFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.cp.Once(applyRBAC, testutil.Response{Code: 1, Stderr: "connection refused"})

	require.NoError(t, NewInitializer().Provision(f.ctx))

	assert.Equal(t, 2, f.cp.Count(applyRBAC))
}

func TestInitializer_ApplyFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.cp.On(applyRBAC, testutil.Response{Code: 1, Stderr: "admission webhook denied"})

	err := NewInitializer().Provision(f.ctx)

	require.ErrorIs(t, err, provisioning.ErrManifestApply)
	assert.Equal(t, 3, f.cp.Count(applyRBAC))
	assert.False(t, f.cp.Ran(applyNetwork))
}

func TestInitializer_RequiresSingleControlPlane(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.ctx.State.Roles = provisioning.NewRoleGroup(f.ctx.State.Nodes[1:])

	require.ErrorIs(t, NewInitializer().Provision(f.ctx), provisioning.ErrConfiguration)
	assert.Empty(t, f.cp.Commands())
}

func TestInitializer_ConnectFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.conn.FailConnect("m1", errors.New("no route to host"))

	err := NewInitializer().Provision(f.ctx)

	require.ErrorIs(t, err, provisioning.ErrInitialization)
	assert.Contains(t, err.Error(), "no route to host")
}

func TestOverlayManifests(t *testing.T) {
	t.Parallel()
	cfg := testutil.NewConfigBuilder().Build()

	got := OverlayManifests(cfg)

	require.Len(t, got, 2)
	assert.Equal(t, "rbac", got[0].Name)
	assert.Equal(t, config.DefaultOverlayRBACURL, got[0].URL)
	assert.Equal(t, config.DefaultOverlayNetworkURL, got[1].URL)
}

func indexOf(cmds []string, prefix string) int {
	for i, c := range cmds {
		if strings.HasPrefix(c, prefix) {
			return i
		}
	}
	return -1
}
