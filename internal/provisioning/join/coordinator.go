package join

import (
	"context"
	"errors"
	"strings"

	"github.com/imamik/hkube/internal/kubeadm"
	"github.com/imamik/hkube/internal/provisioning"
	"github.com/imamik/hkube/internal/remote"
	"github.com/imamik/hkube/internal/util/async"
)

const phase = "join"

// Step names reported in node errors.
const (
	StepCredential = "credential"
	StepConnect    = "connect"
	StepJoin       = "join"
)

// Coordinator joins the workers to the control plane.
type Coordinator struct{}

// NewCoordinator creates the join coordinator phase.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Name implements the provisioning.Phase interface.
func (c *Coordinator) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface. Join failures are
// node-scoped: they are recorded in State and the phase itself succeeds.
func (c *Coordinator) Provision(ctx *provisioning.Context) error {
	cp, err := ctx.State.Roles.ControlPlane()
	if err != nil {
		return err
	}

	var workers []provisioning.ProvisionedNode
	for _, w := range ctx.State.Roles.Workers() {
		if ctx.State.Failed(w.Name()) {
			ctx.State.RecordJoin(w.Name(), provisioning.JoinStatusSkipped)
			provisioning.LogNodeSkipped(ctx.Observer, phase, w.Name(), "failed in an earlier phase")
			continue
		}
		workers = append(workers, w)
	}
	if len(workers) == 0 {
		ctx.Observer.Printf("[%s] No workers to join", phase)
		return nil
	}

	cred, err := MintCredential(ctx, cp)
	if err != nil {
		for _, w := range workers {
			ctx.NodeFailed(provisioning.NewNodeError(provisioning.ErrJoin, phase, w.Name(), StepCredential, err))
			ctx.State.RecordJoin(w.Name(), provisioning.JoinStatusFailed)
		}
		return nil
	}
	ctx.State.JoinCredential = cred
	ctx.Observer.Printf("[%s] Joining %d workers via %s", phase, len(workers), cred.Endpoint)

	tasks := make([]async.Task, 0, len(workers))
	for _, w := range workers {
		tasks = append(tasks, async.Task{
			Name: w.Name(),
			Func: func(taskCtx context.Context) error {
				status, err := joinWorker(ctx.WithContext(taskCtx), w, *cred)
				ctx.State.RecordJoin(w.Name(), status)
				if err != nil {
					return err
				}
				provisioning.LogNodeCompleted(ctx.Observer, phase, w.Name(), string(status))
				return nil
			},
		})
	}

	errs := async.RunAll(ctx, tasks, ctx.Parallelism())
	for _, w := range workers {
		if err, ok := errs[w.Name()]; ok {
			var nodeErr *provisioning.NodeError
			if !errors.As(err, &nodeErr) {
				nodeErr = provisioning.NewNodeError(provisioning.ErrJoin, phase, w.Name(), StepJoin, err)
			}
			ctx.NodeFailed(nodeErr)
		}
	}
	return nil
}

// joinWorker runs kubeadm join on w unless it already has a kubelet
// kubeconfig from an earlier join.
func joinWorker(ctx *provisioning.Context, w provisioning.ProvisionedNode, cred provisioning.ClusterJoinCredential) (provisioning.JoinStatus, error) {
	fail := func(step string, err error) (provisioning.JoinStatus, error) {
		return provisioning.JoinStatusFailed, provisioning.NewNodeError(provisioning.ErrJoin, phase, w.Name(), step, err)
	}

	ex, err := ctx.Executor(w)
	if err != nil {
		return fail(StepConnect, err)
	}

	_, err = ex.Run(ctx, kubeadm.FileExists(kubeadm.KubeletKubeconfig))
	switch {
	case err == nil:
		return provisioning.JoinStatusAlreadyJoined, nil
	case !remote.IsExitError(err):
		return fail(StepJoin, err)
	}

	if _, err := ex.Run(ctx, kubeadm.Join(cred.Endpoint, cred.Token, cred.CACertHash)); err != nil {
		return fail(StepJoin, redact(err, cred.Token))
	}
	return provisioning.JoinStatusJoined, nil
}

// redactedError hides a secret from the message of the error it wraps.
type redactedError struct {
	err    error
	secret string
}

func (e *redactedError) Error() string {
	return strings.ReplaceAll(e.err.Error(), e.secret, "<redacted>")
}

func (e *redactedError) Unwrap() error {
	return e.err
}

// redact strips secret from err. The rendered join command carries the
// token, so an ExitError in the chain is scrubbed as well.
func redact(err error, secret string) error {
	if secret == "" {
		return err
	}
	var exitErr *remote.ExitError
	if errors.As(err, &exitErr) {
		exitErr.Command = strings.ReplaceAll(exitErr.Command, secret, "<redacted>")
		exitErr.Stderr = strings.ReplaceAll(exitErr.Stderr, secret, "<redacted>")
	}
	return &redactedError{err: err, secret: secret}
}
