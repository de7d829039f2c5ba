package provisioning

import (
	"context"

	"github.com/imamik/hkube/internal/manifest"
)

// Phase defines the interface for a provisioning phase.
type Phase interface {
	// Name returns the human-readable name of this phase.
	Name() string

	// Provision executes the provisioning logic for this phase.
	Provision(ctx *Context) error
}

// ManifestSource fetches and validates a Kubernetes manifest.
// Implemented by internal/manifest.Fetcher.
type ManifestSource interface {
	Fetch(ctx context.Context, name, url string) (*manifest.Manifest, error)
}
