package controlplane

import (
	"github.com/imamik/hkube/internal/config"
	"github.com/imamik/hkube/internal/kubeadm"
	"github.com/imamik/hkube/internal/provisioning"
	"github.com/imamik/hkube/internal/remote"
)

const phase = "controlplane"

// Step names reported in node errors.
const (
	StepConnect = "connect"
	StepInit    = "init"
	StepExport  = "export-credentials"
	StepOverlay = "overlay"
)

// Initializer brings up the control plane.
type Initializer struct{}

// NewInitializer creates the control-plane initializer phase.
func NewInitializer() *Initializer {
	return &Initializer{}
}

// Name implements the provisioning.Phase interface.
func (i *Initializer) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface.
func (i *Initializer) Provision(ctx *provisioning.Context) error {
	cp, err := ctx.State.Roles.ControlPlane()
	if err != nil {
		return err
	}
	fail := func(kind error, step string, err error) error {
		return provisioning.NewNodeError(kind, phase, cp.Name(), step, err)
	}

	ex, err := ctx.Executor(cp)
	if err != nil {
		return fail(provisioning.ErrInitialization, StepConnect, err)
	}

	ctx.State.ControlPlaneStatus = Probe(ctx, ex)
	if ctx.State.ControlPlaneStatus == provisioning.ControlPlaneUninitialized {
		ctx.Observer.Printf("[%s] Initializing control plane on %s...", phase, cp.Name())
		if err := Init(ctx, ex, cp); err != nil {
			return fail(provisioning.ErrInitialization, StepInit, err)
		}
		ctx.State.ControlPlaneStatus = provisioning.ControlPlaneRunning
		provisioning.LogNodeCompleted(ctx.Observer, phase, cp.Name(), "control plane initialized")
	} else {
		provisioning.LogNodeSkipped(ctx.Observer, phase, cp.Name(), "control plane already running")
	}

	kubeconfig, err := ExportCredentials(ctx, ex, cp)
	if err != nil {
		return fail(provisioning.ErrInitialization, StepExport, err)
	}
	ctx.State.Kubeconfig = kubeconfig

	if err := InstallOverlay(ctx, ex); err != nil {
		return fail(provisioning.ErrManifestApply, StepOverlay, err)
	}
	return nil
}

// Probe queries the API server through the admin kubeconfig. Any failure
// means the control plane is not initialized; it is expected on a fresh
// node and only logged at debug verbosity.
func Probe(ctx *provisioning.Context, ex remote.Executor) provisioning.ControlPlaneStatus {
	if _, err := ex.Run(ctx, kubeadm.ClusterInfo()); err != nil {
		ctx.Observer.Debugf("[%s] cluster-info probe failed, treating control plane as uninitialized: %v", phase, err)
		return provisioning.ControlPlaneUninitialized
	}
	return provisioning.ControlPlaneRunning
}

// Init runs kubeadm init. The API server advertises the private address so
// workers join over the private network, and its certificate also covers
// the external address used by the exported kubeconfig.
func Init(ctx *provisioning.Context, ex remote.Executor, cp provisioning.ProvisionedNode) error {
	opts := kubeadm.InitOptions{
		PodNetworkCIDR:   ctx.Config.Kubernetes.PodNetworkCIDR,
		AdvertiseAddress: cp.InternalAddress,
	}
	if cp.ExternalAddress != "" {
		opts.ExtraSANs = []string{cp.ExternalAddress}
	}
	_, err := ex.Run(ctx, kubeadm.Init(opts))
	return err
}

func externalServer(cp provisioning.ProvisionedNode) string {
	return "https://" + kubeadm.Endpoint(cp.ExternalAddress, config.KubeAPIPort)
}
