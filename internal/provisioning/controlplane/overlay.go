package controlplane

import (
	"fmt"

	"github.com/imamik/hkube/internal/config"
	"github.com/imamik/hkube/internal/kubeadm"
	"github.com/imamik/hkube/internal/provisioning"
	"github.com/imamik/hkube/internal/remote"
	"github.com/imamik/hkube/internal/util/retry"
)

// ManifestDir holds the overlay manifests on the control-plane node.
const ManifestDir = "/etc/hkube/manifests"

// OverlayManifest is a pinned manifest URL.
type OverlayManifest struct {
	Name string
	URL  string
}

// OverlayManifests returns the overlay manifests in apply order. The RBAC
// and operator manifest installs the CRDs the network definition uses.
func OverlayManifests(cfg *config.Config) []OverlayManifest {
	return []OverlayManifest{
		{Name: "rbac", URL: cfg.Overlay.RBACURL},
		{Name: "network", URL: cfg.Overlay.NetworkURL},
	}
}

// InstallOverlay fetches, validates, uploads and applies each overlay
// manifest. Server-side apply makes reapplying unchanged manifests a no-op.
func InstallOverlay(ctx *provisioning.Context, ex remote.Executor) error {
	if ctx.Manifests == nil {
		return fmt.Errorf("no manifest source configured")
	}
	timeouts := ctx.Timeouts
	if timeouts == nil {
		timeouts = config.LoadTimeouts()
	}

	for _, om := range OverlayManifests(ctx.Config) {
		m, err := ctx.Manifests.Fetch(ctx, om.Name, om.URL)
		if err != nil {
			return fmt.Errorf("failed to fetch %s manifest: %w", om.Name, err)
		}

		path := ManifestDir + "/" + om.Name + ".yaml"
		if err := remote.WriteFile(ctx, ex, path, m.Data, 0o644); err != nil {
			return fmt.Errorf("failed to upload %s manifest: %w", om.Name, err)
		}

		// The API server may still be settling right after init.
		err = retry.WithExponentialBackoff(ctx, func() error {
			_, err := ex.Run(ctx, kubeadm.Apply(kubeadm.AdminKubeconfig, path))
			return err
		},
			retry.WithMaxRetries(timeouts.RetryMaxAttempts),
			retry.WithInitialDelay(timeouts.RetryInitialDelay),
			retry.WithOnRetry(func(attempt int, err error) {
				ctx.Observer.Debugf("[%s] apply %s attempt %d failed: %v", phase, om.Name, attempt, err)
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to apply %s manifest: %w", om.Name, err)
		}
		ctx.Observer.Printf("[%s] Applied %s manifest (%d objects)", phase, om.Name, len(m.Objects))
	}
	return nil
}
