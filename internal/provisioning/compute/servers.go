package compute

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hkube/internal/config"
	hcloud_internal "github.com/imamik/hkube/internal/platform/hcloud"
	"github.com/imamik/hkube/internal/provisioning"
	"github.com/imamik/hkube/internal/util/async"
	"github.com/imamik/hkube/internal/util/labels"
	"github.com/imamik/hkube/internal/util/naming"
	"github.com/imamik/hkube/internal/util/retry"
)

// errNoAddress is retried until the provider reports both addresses.
var errNoAddress = errors.New("server has no address yet")

// provisionServers ensures one server per node in parallel and records the
// provisioned nodes in declaration order.
func (p *Provisioner) provisionServers(ctx *provisioning.Context) error {
	nodes := ctx.Config.Nodes
	results := make([]provisioning.ProvisionedNode, len(nodes))

	tasks := make([]async.Task, 0, len(nodes))
	for i, spec := range nodes {
		tasks = append(tasks, async.Task{
			Name: spec.Name,
			Func: func(c context.Context) error {
				node, err := p.provisionServer(ctx.WithContext(c), spec)
				if err != nil {
					return err
				}
				results[i] = node
				return nil
			},
		})
	}

	ctx.Observer.Printf("[%s] Ensuring %d servers (parallelism %d)...", phase, len(tasks), ctx.Parallelism())
	if err := async.RunParallel(ctx, tasks, ctx.Parallelism()); err != nil {
		return err
	}

	ctx.State.Nodes = results
	return nil
}

func (p *Provisioner) provisionServer(ctx *provisioning.Context, spec config.NodeSpec) (provisioning.ProvisionedNode, error) {
	cfg := ctx.Config
	name := naming.Server(cfg.ClusterName, spec.Name)
	fail := func(step string, err error) (provisioning.ProvisionedNode, error) {
		return provisioning.ProvisionedNode{}, provisioning.NewNodeError(provisioning.ErrProvisioning, phase, spec.Name, step, err)
	}

	provisioning.LogResourceCreating(ctx.Observer, phase, "server", name)
	server, err := ctx.Infra.EnsureServer(ctx, hcloud_internal.ServerCreateOpts{
		Name:       name,
		Image:      cfg.Machine.Image,
		ServerType: cfg.Machine.ServerType,
		Location:   cfg.Location,
		SSHKey:     ctx.State.SSHKey,
		Network:    ctx.State.Network,
		Labels: labels.NewLabelBuilder(cfg.ClusterName).
			WithRole(string(spec.Role)).
			WithNode(spec.Name).
			WithPreemptible(cfg.Machine.Preemptible).
			Build(),
		EnablePublicIPv4: cfg.Machine.PublicIPv4Enabled(),
		EnablePublicIPv6: cfg.Machine.PublicIPv6Enabled(),
	})
	if err != nil {
		return fail("server", err)
	}

	node, err := p.waitForAddresses(ctx, spec, server)
	if err != nil {
		return fail("address", err)
	}

	provisioning.LogResourceCreated(ctx.Observer, phase, "server", name, strconv.FormatInt(node.ProviderID, 10))
	ctx.Observer.Printf("[%s] %s: external %s, internal %s", phase, spec.Name, node.ExternalAddress, node.InternalAddress)
	return node, nil
}

// waitForAddresses polls the provider until it reports the server's public
// and private addresses, bounded by the ServerIP timeout.
func (p *Provisioner) waitForAddresses(ctx *provisioning.Context, spec config.NodeSpec, server *hcloud.Server) (provisioning.ProvisionedNode, error) {
	networkID := ctx.State.Network.ID
	node := provisioning.ProvisionedNode{Spec: spec, ProviderID: server.ID}
	if addressed(&node, server, networkID) {
		return node, nil
	}

	timeouts := ctx.Timeouts
	if timeouts == nil {
		timeouts = config.LoadTimeouts()
	}
	delay := timeouts.RetryInitialDelay
	if delay <= 0 {
		delay = time.Second
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeouts.ServerIP)
	defer cancel()

	err := retry.WithExponentialBackoff(waitCtx, func() error {
		current, err := ctx.Infra.GetServerByName(waitCtx, server.Name)
		if err != nil {
			return err
		}
		if current == nil {
			return retry.Fatal(fmt.Errorf("server %s disappeared", server.Name))
		}
		if !addressed(&node, current, networkID) {
			return errNoAddress
		}
		return nil
	},
		retry.WithMaxRetries(math.MaxInt32),
		retry.WithInitialDelay(delay),
		retry.WithMaxDelay(5*time.Second),
	)
	if err != nil {
		return provisioning.ProvisionedNode{}, fmt.Errorf("failed to get addresses of %s: %w", server.Name, err)
	}
	return node, nil
}

// addressed fills node's addresses from server and reports whether both are known.
func addressed(node *provisioning.ProvisionedNode, server *hcloud.Server, networkID int64) bool {
	node.ExternalAddress = hcloud_internal.ServerPublicIP(server)
	node.InternalAddress = hcloud_internal.ServerPrivateIP(server, networkID)
	return node.ExternalAddress != "" && node.InternalAddress != ""
}
