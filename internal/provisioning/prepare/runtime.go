package prepare

import (
	"context"
	"strings"

	"github.com/imamik/hkube/internal/remote"
)

const (
	modulesPath          = "/etc/modules-load.d/k8s.conf"
	sysctlPath           = "/etc/sysctl.d/k8s.conf"
	containerdConfigPath = "/etc/containerd/config.toml"
)

// KernelModules are loaded now and on every boot.
var KernelModules = []string{"overlay", "br_netfilter"}

const sysctlConf = `net.bridge.bridge-nf-call-iptables  = 1
net.bridge.bridge-nf-call-ip6tables = 1
net.ipv4.ip_forward                 = 1
`

func installRuntime(ctx context.Context, ex remote.Executor) error {
	if err := remote.WriteFile(ctx, ex, modulesPath, []byte(strings.Join(KernelModules, "\n")+"\n"), 0o644); err != nil {
		return err
	}
	for _, mod := range KernelModules {
		if _, err := ex.Run(ctx, remote.Sudo("modprobe", mod)); err != nil {
			return err
		}
	}
	if err := remote.WriteFile(ctx, ex, sysctlPath, []byte(sysctlConf), 0o644); err != nil {
		return err
	}
	if err := run(ctx, ex,
		remote.Sudo("sysctl", "--system"),
		// kubelet refuses to start with swap enabled.
		remote.Sudo("swapoff", "-a"),
		remote.Sudo("sed", "-i", "-E", `/\sswap\s/ s/^#*/#/`, "/etc/fstab"),
		aptGet("install", "-y", "-q", "containerd"),
	); err != nil {
		return err
	}

	if err := configureContainerd(ctx, ex); err != nil {
		return err
	}
	_, err := ex.Run(ctx, remote.Sudo("systemctl", "enable", "--now", "containerd"))
	return err
}

// configureContainerd writes the default config with the systemd cgroup
// driver and restarts containerd, only when the file on disk differs.
func configureContainerd(ctx context.Context, ex remote.Executor) error {
	res, err := ex.Run(ctx, remote.Cmd("containerd", "config", "default"))
	if err != nil {
		return err
	}
	desired := SystemdCgroup(res.Stdout)

	current, err := remote.ReadFile(ctx, ex, containerdConfigPath, true)
	if err != nil && !remote.IsExitError(err) {
		return err
	}
	if err == nil && string(current) == desired {
		return nil
	}

	if err := remote.WriteFile(ctx, ex, containerdConfigPath, []byte(desired), 0o644); err != nil {
		return err
	}
	_, err = ex.Run(ctx, remote.Sudo("systemctl", "restart", "containerd"))
	return err
}

// SystemdCgroup switches a containerd config to the systemd cgroup driver,
// which kubeadm configures the kubelet with.
func SystemdCgroup(cfg string) string {
	return strings.ReplaceAll(cfg, "SystemdCgroup = false", "SystemdCgroup = true")
}
