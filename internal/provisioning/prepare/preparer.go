package prepare

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/hkube/internal/config"
	"github.com/imamik/hkube/internal/provisioning"
	"github.com/imamik/hkube/internal/util/async"
)

const phase = "prepare"

// Preparer runs the preparation steps on every provisioned node.
type Preparer struct{}

// NewPreparer creates the node preparer phase.
func NewPreparer() *Preparer {
	return &Preparer{}
}

// Name implements the provisioning.Phase interface.
func (p *Preparer) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface.
//
// Worker failures are recorded in State and the phase succeeds, so later
// phases skip those workers. A control-plane failure aborts the run.
func (p *Preparer) Provision(ctx *provisioning.Context) error {
	steps, err := Steps(ctx.Config)
	if err != nil {
		return provisioning.StageError(provisioning.ErrConfiguration, phase, err)
	}

	nodes := make(map[string]provisioning.ProvisionedNode, len(ctx.State.Nodes))
	tasks := make([]async.Task, 0, len(ctx.State.Nodes))
	for _, node := range ctx.State.Nodes {
		if ctx.State.Failed(node.Name()) {
			provisioning.LogNodeSkipped(ctx.Observer, phase, node.Name(), "failed in an earlier phase")
			continue
		}
		nodes[node.Name()] = node
		tasks = append(tasks, async.Task{
			Name: node.Name(),
			Func: func(c context.Context) error {
				return p.prepareNode(ctx.WithContext(c), node, steps)
			},
		})
	}

	ctx.Observer.Printf("[%s] Preparing %d nodes (parallelism %d)...", phase, len(tasks), ctx.Parallelism())
	errs := async.RunAll(ctx, tasks, ctx.Parallelism())

	var abort error
	for _, node := range ctx.State.Nodes {
		err, ok := errs[node.Name()]
		if !ok {
			continue
		}
		var nodeErr *provisioning.NodeError
		if !errors.As(err, &nodeErr) {
			nodeErr = provisioning.NewNodeError(provisioning.ErrPreparation, phase, node.Name(), "", err)
		}
		ctx.NodeFailed(nodeErr)
		if nodes[node.Name()].Role() == config.RoleControlPlane {
			abort = nodeErr
		}
	}
	if abort != nil {
		return fmt.Errorf("control-plane node not prepared: %w", abort)
	}
	return nil
}

func (p *Preparer) prepareNode(ctx *provisioning.Context, node provisioning.ProvisionedNode, steps []Step) error {
	ex, err := ctx.Executor(node)
	if err != nil {
		return provisioning.NewNodeError(provisioning.ErrPreparation, phase, node.Name(), "connect", err)
	}

	for i, step := range steps {
		ctx.Observer.Debugf("[%s] %s: %s (%d/%d)", phase, node.Name(), step.Name, i+1, len(steps))
		if err := step.Run(ctx, ex); err != nil {
			return provisioning.NewNodeError(provisioning.ErrPreparation, phase, node.Name(), step.Name, err)
		}
	}

	provisioning.LogNodeCompleted(ctx.Observer, phase, node.Name(), "prepared")
	return nil
}
