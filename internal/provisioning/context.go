package provisioning

import (
	"context"

	"github.com/imamik/hkube/internal/config"
	hcloud_internal "github.com/imamik/hkube/internal/platform/hcloud"
	"github.com/imamik/hkube/internal/remote"
)

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Config    *config.Config
	State     *State
	Infra     hcloud_internal.Provider
	Remote    remote.Connector
	Manifests ManifestSource
	Observer  Observer
	Metrics   *Metrics
	Timeouts  *config.Timeouts

	// PublicKey is the authorized_keys line uploaded as the servers' SSH key.
	PublicKey string
}

// NewContext creates a new provisioning context with a discarding observer
// and timeouts from the environment.
func NewContext(
	ctx context.Context,
	cfg *config.Config,
	infra hcloud_internal.Provider,
	conn remote.Connector,
	manifests ManifestSource,
) *Context {
	return &Context{
		Context:   ctx,
		Config:    cfg,
		State:     NewState(),
		Infra:     infra,
		Remote:    conn,
		Manifests: manifests,
		Observer:  NewDiscardObserver(),
		Timeouts:  config.LoadTimeouts(),
	}
}

// WithContext returns a shallow copy of c bound to ctx. State is shared.
func (c *Context) WithContext(ctx context.Context) *Context {
	cp := *c
	cp.Context = ctx
	return &cp
}

// NodeFailed records a node-scoped failure in State, logs and counts it.
func (c *Context) NodeFailed(err *NodeError) {
	c.State.RecordFailure(err)
	LogNodeFailed(c.Observer, err)
	c.Metrics.NodeFailed(err)
}

// Executor opens the remote executor for node.
func (c *Context) Executor(node ProvisionedNode) (remote.Executor, error) {
	return c.Remote.Connect(c, node.Target())
}

// Parallelism returns the configured bound on concurrent per-node work.
func (c *Context) Parallelism() int {
	if c.Config == nil || c.Config.Parallelism <= 0 {
		return config.DefaultParallelism
	}
	return c.Config.Parallelism
}
