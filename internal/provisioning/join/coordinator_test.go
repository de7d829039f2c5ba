package join

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/hkube/internal/config"
	"github.com/imamik/hkube/internal/kubeadm"
	"github.com/imamik/hkube/internal/provisioning"
	"github.com/imamik/hkube/internal/remote"
	testutil "github.com/imamik/hkube/internal/testing"
)

const (
	token        = "abcdef.0123456789abcdef"
	tokenCreate  = "sudo -n kubeadm token create"
	kubeletCheck = "sudo -n test -f /etc/kubernetes/kubelet.conf"
	joinPrefix   = "sudo -n kubeadm join"
)

type fixture struct {
	ctx  *provisioning.Context
	conn *testutil.FakeConnector
	cp   *testutil.FakeExecutor
	hash string
}

func newFixture(t *testing.T, workers ...string) *fixture {
	t.Helper()
	cfg := testutil.NewConfigBuilder().WithWorkers(workers...).Build()
	conn := testutil.NewFakeConnector()
	ctx := provisioning.NewContext(context.Background(), cfg, nil, conn, nil)

	for i, spec := range cfg.Nodes {
		ctx.State.Nodes = append(ctx.State.Nodes, provisioning.ProvisionedNode{
			Spec:            spec,
			ExternalAddress: "203.0.113." + string(rune('0'+i)),
			InternalAddress: "10.0.0." + string(rune('2'+i)),
		})
		if spec.Role == config.RoleWorker {
			conn.Executor(spec.Name).On(kubeletCheck, testutil.Response{Code: 1})
		}
	}
	ctx.State.Roles = provisioning.NewRoleGroup(ctx.State.Nodes)

	ca := testutil.CACertPEM(t)
	hash, err := kubeadm.DiscoveryHash(ca)
	require.NoError(t, err)

	cp := conn.Executor("m1").
		SetFile(kubeadm.CACertPath, ca).
		On("hostname -I", testutil.Response{Stdout: "203.0.113.0 10.0.0.2 2001:db8::1 \n"}).
		On(tokenCreate, testutil.Response{Stdout: token + "\n"})

	return &fixture{ctx: ctx, conn: conn, cp: cp, hash: hash}
}

func TestCoordinator_Name(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "join", NewCoordinator().Name())
}

func TestCoordinator_JoinsWorkers(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "w1", "w2", "w3")

	require.NoError(t, NewCoordinator().Provision(f.ctx))

	cred := f.ctx.State.JoinCredential
	require.NotNil(t, cred)
	assert.Equal(t, "10.0.0.2:6443", cred.Endpoint)
	assert.Equal(t, token, cred.Token)
	assert.Equal(t, f.hash, cred.CACertHash)

	assert.Equal(t, 1, f.cp.Count(tokenCreate))
	want := "sudo -n kubeadm join 10.0.0.2:6443 --token " + token + " --discovery-token-ca-cert-hash " + f.hash
	for _, w := range []string{"w1", "w2", "w3"} {
		assert.Equal(t, []string{kubeletCheck, want}, f.conn.Executor(w).Commands(), w)
	}
	assert.False(t, f.cp.Ran(joinPrefix))
	assert.Equal(t, map[string]provisioning.JoinStatus{
		"w1": provisioning.JoinStatusJoined,
		"w2": provisioning.JoinStatusJoined,
		"w3": provisioning.JoinStatusJoined,
	}, f.ctx.State.JoinResults())
	assert.Empty(t, f.ctx.State.Failures())
}

func TestCoordinator_WorkerFailureIsIndependent(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "w1", "w2")
	f.conn.Executor("w1").On(joinPrefix, testutil.Response{Code: 1, Stderr: "[preflight] port 10250 is in use"})

	require.NoError(t, NewCoordinator().Provision(f.ctx))

	failures := f.ctx.State.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "w1", failures[0].Node)
	assert.Equal(t, StepJoin, failures[0].Step)
	assert.ErrorIs(t, failures[0], provisioning.ErrJoin)
	assert.NotContains(t, failures[0].Error(), token)
	assert.Contains(t, failures[0].Error(), "port 10250")

	var exitErr *remote.ExitError
	require.ErrorAs(t, failures[0], &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.NotContains(t, exitErr.Command, token)
	assert.Contains(t, exitErr.Command, "<redacted>")

	assert.True(t, f.conn.Executor("w2").Ran(joinPrefix))
	assert.Equal(t, provisioning.JoinStatusFailed, f.ctx.State.JoinResults()["w1"])
	assert.Equal(t, provisioning.JoinStatusJoined, f.ctx.State.JoinResults()["w2"])
}

func TestCoordinator_AlreadyJoined(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "w1")
	f.conn.Executor("w1").On(kubeletCheck, testutil.Response{})

	require.NoError(t, NewCoordinator().Provision(f.ctx))

	assert.False(t, f.conn.Executor("w1").Ran(joinPrefix))
	assert.Equal(t, provisioning.JoinStatusAlreadyJoined, f.ctx.State.JoinResults()["w1"])
}

func TestCoordinator_CredentialFailureFailsEveryWorker(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "w1", "w2")
	f.cp.On(tokenCreate, testutil.Response{Code: 1, Stderr: "timed out waiting for the condition"})

	require.NoError(t, NewCoordinator().Provision(f.ctx))

	failures := f.ctx.State.Failures()
	assert.ElementsMatch(t, []string{"w1", "w2"}, failures.Nodes())
	for _, fe := range failures {
		assert.Equal(t, StepCredential, fe.Step)
		assert.ErrorIs(t, fe, provisioning.ErrJoin)
	}
	assert.Nil(t, f.ctx.State.JoinCredential)
	assert.False(t, f.conn.Executor("w1").Ran(joinPrefix))
	assert.False(t, f.conn.Executor("w2").Ran(joinPrefix))
}

func TestCoordinator_SkipsFailedWorkers(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "w1", "w2")
	f.ctx.State.RecordFailure(provisioning.NewNodeError(provisioning.ErrPreparation, "prepare", "w1", "runtime", errors.New("x")))

	require.NoError(t, NewCoordinator().Provision(f.ctx))

	assert.Empty(t, f.conn.Executor("w1").Commands())
	assert.Equal(t, provisioning.JoinStatusSkipped, f.ctx.State.JoinResults()["w1"])
	assert.Equal(t, provisioning.JoinStatusJoined, f.ctx.State.JoinResults()["w2"])
}

func TestCoordinator_NoWorkersMintsNothing(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	require.NoError(t, NewCoordinator().Provision(f.ctx))

	assert.Empty(t, f.cp.Commands())
	assert.Nil(t, f.ctx.State.JoinCredential)
}

func TestMintCredential_PrivateAddressNotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "w1")
	f.cp.On("hostname -I", testutil.Response{Stdout: "203.0.113.0 172.17.0.1\n"})
	cp, err := f.ctx.State.Roles.ControlPlane()
	require.NoError(t, err)

	_, err = MintCredential(f.ctx, cp)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "10.0.0.0/8")
	assert.False(t, f.cp.Ran(tokenCreate))
}

func TestMintCredential_TokenWithWarnings(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "w1")
	f.cp.On(tokenCreate, testutil.Response{Stdout: "W1015 12:00:00 warnings.go:70] something\n" + token + "\n"})
	cp, err := f.ctx.State.Roles.ControlPlane()
	require.NoError(t, err)

	cred, err := MintCredential(f.ctx, cp)

	require.NoError(t, err)
	assert.Equal(t, token, cred.Token)
}

func TestMintCredential_BadCA(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "w1")
	f.cp.SetFile(kubeadm.CACertPath, []byte("not a certificate"))
	cp, err := f.ctx.State.Roles.ControlPlane()
	require.NoError(t, err)

	_, err = MintCredential(f.ctx, cp)

	require.Error(t, err)
}
