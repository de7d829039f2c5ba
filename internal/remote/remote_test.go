package remote

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecutor struct {
	calls   []Command
	results map[string]Result
	fail    map[string]error
}

func (r *recordingExecutor) Run(_ context.Context, cmd Command) (Result, error) {
	r.calls = append(r.calls, cmd)
	line := Render(cmd)
	if err, ok := r.fail[line]; ok {
		return Result{ExitCode: 1}, err
	}
	return r.results[line], nil
}

func TestRender(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{name: "plain", cmd: Cmd("hostname", "-I"), want: "hostname -I"},
		{name: "sudo", cmd: Sudo("systemctl", "restart", "containerd"), want: "sudo -n systemctl restart containerd"},
		{
			name: "quotes metacharacters",
			cmd:  Cmd("echo", "a b", "$(reboot)", "it's"),
			want: `echo 'a b' '$(reboot)' 'it'"'"'s'`,
		},
		{
			name: "env sorted after sudo",
			cmd:  Sudo("apt-get", "-y", "upgrade").WithEnv("DEBIAN_FRONTEND", "noninteractive").WithEnv("A", "1"),
			want: "sudo -n env A=1 DEBIAN_FRONTEND=noninteractive apt-get -y upgrade",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Render(tt.cmd))
		})
	}
}

func TestWithEnv_DoesNotMutateOriginal(t *testing.T) {
	t.Parallel()
	base := Cmd("true").WithEnv("A", "1")
	_ = base.WithEnv("B", "2")

	assert.Equal(t, map[string]string{"A": "1"}, base.Env)
}

func TestExitError(t *testing.T) {
	t.Parallel()
	err := error(&ExitError{Command: "kubeadm init", Code: 1, Stderr: "line1\nline2\n"})

	assert.True(t, IsExitError(err))
	assert.True(t, IsExitError(errors.Join(errors.New("ctx"), err)))
	assert.False(t, IsExitError(errors.New("dial tcp: refused")))
	assert.Equal(t, `command "kubeadm init" exited with status 1: line1 | line2`, err.Error())
}

func TestOutput_Trims(t *testing.T) {
	t.Parallel()
	ex := &recordingExecutor{results: map[string]Result{"printenv HOME": {Stdout: "/root\n"}}}

	out, err := Output(context.Background(), ex, Cmd("printenv", "HOME"))
	require.NoError(t, err)
	assert.Equal(t, "/root", out)
}

func TestReadFile(t *testing.T) {
	t.Parallel()
	ex := &recordingExecutor{results: map[string]Result{
		"sudo -n cat /etc/kubernetes/admin.conf": {Stdout: "apiVersion: v1\n"},
	}}

	data, err := ReadFile(context.Background(), ex, "/etc/kubernetes/admin.conf", true)
	require.NoError(t, err)
	assert.Equal(t, "apiVersion: v1\n", string(data))
}

func TestWriteFile(t *testing.T) {
	t.Parallel()
	ex := &recordingExecutor{}

	err := WriteFile(context.Background(), ex, "/etc/apt/sources.list.d/kubernetes.list", []byte("deb x"), 0o644)
	require.NoError(t, err)

	require.Len(t, ex.calls, 3)
	assert.Equal(t, "sudo -n mkdir -p /etc/apt/sources.list.d", Render(ex.calls[0]))
	assert.Equal(t, "sudo -n tee /etc/apt/sources.list.d/kubernetes.list", Render(ex.calls[1]))
	assert.Equal(t, []byte("deb x"), ex.calls[1].Stdin)
	assert.Equal(t, "sudo -n chmod 644 /etc/apt/sources.list.d/kubernetes.list", Render(ex.calls[2]))
}

func TestWriteFile_PropagatesFailure(t *testing.T) {
	t.Parallel()
	cause := &ExitError{Command: "tee", Code: 1}
	ex := &recordingExecutor{fail: map[string]error{"sudo -n tee /etc/x.conf": cause}}

	err := WriteFile(context.Background(), ex, "/etc/x.conf", []byte("x"), 0o600)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}
