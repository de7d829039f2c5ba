package prepare

import (
	"context"

	"github.com/imamik/hkube/internal/remote"
)

const (
	keyringDir     = "/etc/apt/keyrings"
	keyringPath    = keyringDir + "/kubernetes-apt-keyring.gpg"
	sourcesPath    = "/etc/apt/sources.list.d/kubernetes.list"
	releaseKeyPath = "/tmp/hkube-kubernetes-release.key"
)

// Tools are the pinned cluster packages.
var Tools = []string{"kubelet", "kubeadm", "kubectl"}

// SourcesLine is the apt source entry for repo, signed by the dearmored keyring.
func SourcesLine(repo string) string {
	return "deb [signed-by=" + keyringPath + "] " + repo + " /\n"
}

func registerRepository(ctx context.Context, ex remote.Executor, repo string) error {
	if err := run(ctx, ex,
		aptGet("update", "-q"),
		aptGet("install", "-y", "-q", "apt-transport-https", "ca-certificates", "curl", "gpg"),
		remote.Sudo("mkdir", "-p", "-m", "0755", keyringDir),
		remote.Cmd("curl", "-fsSL", "--retry", "3", "-o", releaseKeyPath, repo+"Release.key"),
		// --yes overwrites a keyring left by a previous run.
		remote.Sudo("gpg", "--batch", "--yes", "--dearmor", "-o", keyringPath, releaseKeyPath),
	); err != nil {
		return err
	}
	return remote.WriteFile(ctx, ex, sourcesPath, []byte(SourcesLine(repo)), 0o644)
}

func upgradePackages(ctx context.Context, ex remote.Executor) error {
	return run(ctx, ex,
		aptGet("update", "-q"),
		aptGet("upgrade", "-y", "-q",
			"-o", "Dpkg::Options::=--force-confdef",
			"-o", "Dpkg::Options::=--force-confold"),
	)
}

// installTools installs every tool at pin (VERSION-REVISION) and holds it.
func installTools(ctx context.Context, ex remote.Executor, pin string) error {
	install := []string{"install", "-y", "-q", "--allow-downgrades", "--allow-change-held-packages"}
	for _, tool := range Tools {
		install = append(install, tool+"="+pin)
	}
	return run(ctx, ex,
		aptGet(install...),
		remote.Sudo(append([]string{"apt-mark", "hold"}, Tools...)...),
		remote.Sudo("systemctl", "enable", "--now", "kubelet"),
	)
}
