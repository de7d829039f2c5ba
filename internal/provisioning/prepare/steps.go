package prepare

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/imamik/hkube/internal/config"
	"github.com/imamik/hkube/internal/remote"
)

// Step names, in execution order.
const (
	StepRepository = "repository"
	StepPackages   = "packages"
	StepRuntime    = "runtime"
	StepTools      = "tools"
)

// Step is one convergent host-setup step.
type Step struct {
	Name string
	Run  func(ctx context.Context, ex remote.Executor) error
}

// Steps returns the preparation steps for cfg in execution order.
func Steps(cfg *config.Config) ([]Step, error) {
	repo, err := RepositoryURL(cfg.Kubernetes.Version)
	if err != nil {
		return nil, err
	}
	pin := cfg.Kubernetes.Version + "-" + cfg.Kubernetes.PackageRevision

	return []Step{
		{Name: StepRepository, Run: func(ctx context.Context, ex remote.Executor) error {
			return registerRepository(ctx, ex, repo)
		}},
		{Name: StepPackages, Run: upgradePackages},
		{Name: StepRuntime, Run: installRuntime},
		{Name: StepTools, Run: func(ctx context.Context, ex remote.Executor) error {
			return installTools(ctx, ex, pin)
		}},
	}, nil
}

// RepositoryURL returns the pkgs.k8s.io apt repository of version's minor release.
func RepositoryURL(version string) (string, error) {
	v, err := semver.StrictNewVersion(version)
	if err != nil {
		return "", fmt.Errorf("invalid kubernetes version %q: %w", version, err)
	}
	return fmt.Sprintf("https://pkgs.k8s.io/core:/stable:/v%d.%d/deb/", v.Major(), v.Minor()), nil
}

// run executes cmds in order, stopping at the first failure.
func run(ctx context.Context, ex remote.Executor, cmds ...remote.Command) error {
	for _, cmd := range cmds {
		if _, err := ex.Run(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// aptGet runs apt-get as root without interactive prompts.
func aptGet(args ...string) remote.Command {
	return remote.Sudo(append([]string{"apt-get"}, args...)...).WithEnv("DEBIAN_FRONTEND", "noninteractive")
}
