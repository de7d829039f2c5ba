package controlplane

import (
	"fmt"

	"github.com/imamik/hkube/internal/kubeadm"
	"github.com/imamik/hkube/internal/provisioning"
	"github.com/imamik/hkube/internal/remote"
)

// ExportCredentials installs admin.conf as the SSH user's kubeconfig, owned
// by that user with mode 0600, and returns a copy whose server is the
// control plane's external address. Rerunning rewrites identical bytes.
func ExportCredentials(ctx *provisioning.Context, ex remote.Executor, cp provisioning.ProvisionedNode) ([]byte, error) {
	home, err := remote.Output(ctx, ex, remote.Cmd("printenv", "HOME"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	if home == "" {
		return nil, fmt.Errorf("HOME is not set for the remote user")
	}
	uid, err := remote.Output(ctx, ex, remote.Cmd("id", "-u"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user id: %w", err)
	}
	gid, err := remote.Output(ctx, ex, remote.Cmd("id", "-g"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve group id: %w", err)
	}

	if _, err := ex.Run(ctx, remote.Sudo("install", "-D", "-m", "0600", "-o", uid, "-g", gid,
		kubeadm.AdminKubeconfig, UserKubeconfig(home))); err != nil {
		return nil, fmt.Errorf("failed to install kubeconfig: %w", err)
	}

	data, err := remote.ReadFile(ctx, ex, kubeadm.AdminKubeconfig, true)
	if err != nil {
		return nil, err
	}
	if _, err := kubeadm.ValidateKubeconfig(data); err != nil {
		return nil, err
	}
	if cp.ExternalAddress == "" {
		return data, nil
	}
	return kubeadm.RewriteServer(data, externalServer(cp))
}

// UserKubeconfig is the kubeconfig path under home.
func UserKubeconfig(home string) string {
	return home + "/.kube/config"
}
