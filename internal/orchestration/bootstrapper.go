package orchestration

import (
	"context"

	"github.com/imamik/hkube/internal/config"
	hcloud_internal "github.com/imamik/hkube/internal/platform/hcloud"
	"github.com/imamik/hkube/internal/provisioning"
	"github.com/imamik/hkube/internal/provisioning/compute"
	"github.com/imamik/hkube/internal/provisioning/controlplane"
	"github.com/imamik/hkube/internal/provisioning/join"
	"github.com/imamik/hkube/internal/provisioning/prepare"
	"github.com/imamik/hkube/internal/provisioning/readiness"
	"github.com/imamik/hkube/internal/remote"
)

// Bootstrapper orchestrates the cluster bootstrap workflow.
type Bootstrapper struct {
	config    *config.Config
	infra     hcloud_internal.Provider
	remote    remote.Connector
	manifests provisioning.ManifestSource

	observer  provisioning.Observer
	metrics   *provisioning.Metrics
	timeouts  *config.Timeouts
	publicKey string
	sshPort   int
}

// Option configures a Bootstrapper.
type Option func(*Bootstrapper)

// WithObserver sets the observer receiving logs and events.
func WithObserver(o provisioning.Observer) Option {
	return func(b *Bootstrapper) { b.observer = o }
}

// WithMetrics records run metrics in m.
func WithMetrics(m *provisioning.Metrics) Option {
	return func(b *Bootstrapper) { b.metrics = m }
}

// WithTimeouts overrides the timeouts loaded from the environment.
func WithTimeouts(t *config.Timeouts) Option {
	return func(b *Bootstrapper) { b.timeouts = t }
}

// WithPublicKey sets the authorized_keys line uploaded for the servers.
func WithPublicKey(key string) Option {
	return func(b *Bootstrapper) { b.publicKey = key }
}

// WithSSHPort sets the port the readiness phase waits on.
func WithSSHPort(port int) Option {
	return func(b *Bootstrapper) { b.sshPort = port }
}

// NewBootstrapper creates a new bootstrapper.
func NewBootstrapper(
	cfg *config.Config,
	infra hcloud_internal.Provider,
	conn remote.Connector,
	manifests provisioning.ManifestSource,
	opts ...Option,
) *Bootstrapper {
	b := &Bootstrapper{
		config:    cfg,
		infra:     infra,
		remote:    conn,
		manifests: manifests,
		sshPort:   config.SSHPort,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Phases returns the bootstrap phases in execution order.
func (b *Bootstrapper) Phases() []provisioning.Phase {
	return []provisioning.Phase{
		provisioning.NewValidationPhase(),
		compute.NewProvisioner(),
		&readiness.Waiter{Port: b.sshPort},
		provisioning.NewRolesPhase(),
		prepare.NewPreparer(),
		controlplane.NewInitializer(),
		join.NewCoordinator(),
	}
}

// Run executes every phase. A phase error aborts the run and is returned
// with the Outcome reached so far. Otherwise, recorded node failures are
// returned as provisioning.NodeErrors with the partial Outcome.
func (b *Bootstrapper) Run(ctx context.Context) (*Outcome, error) {
	pCtx := provisioning.NewContext(ctx, b.config, b.infra, b.remote, b.manifests)
	if b.observer != nil {
		pCtx.Observer = b.observer
	}
	if b.timeouts != nil {
		pCtx.Timeouts = b.timeouts
	}
	pCtx.Metrics = b.metrics
	pCtx.PublicKey = b.publicKey

	err := provisioning.NewPipeline(b.Phases()...).Run(pCtx)
	outcome := newOutcome(pCtx.State)
	if err != nil {
		return outcome, err
	}
	if len(outcome.Failures) > 0 {
		return outcome, outcome.Failures
	}
	return outcome, nil
}
