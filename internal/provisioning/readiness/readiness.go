package readiness

import (
	"context"
	"time"

	"github.com/imamik/hkube/internal/config"
	"github.com/imamik/hkube/internal/provisioning"
	"github.com/imamik/hkube/internal/util/async"
	"github.com/imamik/hkube/internal/util/netutil"
)

const phase = "readiness"

// Waiter waits for every node's port to become connectable.
type Waiter struct {
	// Port is polled on each node's external address. Default: config.SSHPort.
	Port int

	// waitForPort defaults to netutil.WaitForPort.
	waitForPort func(ctx context.Context, host string, port int, timeout time.Duration, opts netutil.WaitOptions) error
}

// NewWaiter creates a waiter for the SSH port.
func NewWaiter() *Waiter {
	return &Waiter{Port: config.SSHPort}
}

// Name implements the provisioning.Phase interface.
func (w *Waiter) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface. The first node to
// time out aborts the wait for the others.
func (w *Waiter) Provision(ctx *provisioning.Context) error {
	port := w.Port
	if port == 0 {
		port = config.SSHPort
	}
	timeouts := ctx.Timeouts
	if timeouts == nil {
		timeouts = config.LoadTimeouts()
	}
	opts := netutil.WaitOptions{Interval: timeouts.PortPoll, DialTimeout: timeouts.DialTimeout}
	wait := w.waitForPort
	if wait == nil {
		wait = netutil.WaitForPort
	}

	tasks := make([]async.Task, 0, len(ctx.State.Nodes))
	for _, node := range ctx.State.Nodes {
		tasks = append(tasks, async.Task{
			Name: node.Name(),
			Func: func(c context.Context) error {
				start := time.Now()
				if err := wait(c, node.ExternalAddress, port, timeouts.Readiness, opts); err != nil {
					return provisioning.NewNodeError(provisioning.ErrReadinessTimeout, phase, node.Name(), "", err)
				}
				provisioning.LogNodeCompleted(ctx.Observer, phase, node.Name(),
					"reachable after "+time.Since(start).Round(time.Millisecond).String())
				return nil
			},
		})
	}

	ctx.Observer.Printf("[%s] Waiting for port %d on %d nodes...", phase, port, len(tasks))
	return async.RunParallel(ctx, tasks, ctx.Parallelism())
}
