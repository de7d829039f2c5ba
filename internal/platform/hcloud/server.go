package hcloud

import (
	"context"
	"fmt"
	"maps"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hkube/internal/util/retry"
)

// EnsureServer creates the server described by opts or converges an
// existing one with the same name.
func (c *RealClient) EnsureServer(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("server name cannot be empty")
	}
	if !opts.EnablePublicIPv4 && !opts.EnablePublicIPv6 {
		return nil, fmt.Errorf("server %s needs at least one public IP family", opts.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.ServerCreate)
	defer cancel()

	// A created server joins opts.Network as part of the create call; its
	// private address shows up once the follow-up actions finish.
	var created bool
	server, err := (&EnsureOperation[*hcloud.Server, ServerCreateOpts, hcloud.ServerUpdateOpts]{
		Name:         opts.Name,
		ResourceType: "server",
		Get:          c.client.Server.Get,
		Create: func(ctx context.Context, o ServerCreateOpts) (*CreateResult[*hcloud.Server], *hcloud.Response, error) {
			created = true
			return c.createServer(ctx, o)
		},
		Update: func(ctx context.Context, server *hcloud.Server, update hcloud.ServerUpdateOpts) ([]*hcloud.Action, *hcloud.Response, error) {
			if maps.Equal(server.Labels, update.Labels) {
				return nil, nil, nil
			}
			_, resp, err := c.client.Server.Update(ctx, server, update)
			return nil, resp, err
		},
		CreateOptsMapper: func() ServerCreateOpts { return opts },
		UpdateOptsMapper: func(server *hcloud.Server) hcloud.ServerUpdateOpts {
			labels := make(map[string]string, len(server.Labels)+len(opts.Labels))
			maps.Copy(labels, server.Labels)
			maps.Copy(labels, opts.Labels)
			return hcloud.ServerUpdateOpts{Labels: labels}
		},
	}).Execute(ctx, c)
	if err != nil {
		return nil, err
	}

	if !created && opts.Network != nil && !attachedTo(server, opts.Network.ID) {
		if err := c.attachServerToNetwork(ctx, server, opts.Network); err != nil {
			return nil, err
		}
	}

	if server.Status == hcloud.ServerStatusOff {
		if err := c.powerOn(ctx, server); err != nil {
			return nil, err
		}
	}

	return server, nil
}

// GetServerByName returns the server with the given name, or nil if not found.
func (c *RealClient) GetServerByName(ctx context.Context, name string) (*hcloud.Server, error) {
	server, _, err := c.client.Server.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get server %s: %w", name, err)
	}
	return server, nil
}

// createServer resolves references and creates the server with exponential
// backoff, returning the create and follow-up actions for the caller to await.
func (c *RealClient) createServer(ctx context.Context, opts ServerCreateOpts) (*CreateResult[*hcloud.Server], *hcloud.Response, error) {
	createOpts, err := c.buildServerCreateOpts(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	var (
		result hcloud.ServerCreateResult
		resp   *hcloud.Response
	)
	err = retry.WithExponentialBackoff(ctx, func() error {
		var createErr error
		result, resp, createErr = c.client.Server.Create(ctx, createOpts)
		if createErr != nil {
			if isInvalidParameter(createErr) {
				return retry.Fatal(createErr)
			}
			return createErr
		}
		return nil
	}, retry.WithMaxRetries(c.timeouts.RetryMaxAttempts), retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
	if err != nil {
		return nil, resp, unwrapFatal(err)
	}

	var actions []*hcloud.Action
	if result.Action != nil {
		actions = append(actions, result.Action)
	}
	actions = append(actions, result.NextActions...)
	return &CreateResult[*hcloud.Server]{Resource: result.Server, Actions: actions}, resp, nil
}

// buildServerCreateOpts resolves server type, image, location and network references.
func (c *RealClient) buildServerCreateOpts(ctx context.Context, opts ServerCreateOpts) (hcloud.ServerCreateOpts, error) {
	serverType, _, err := c.client.ServerType.Get(ctx, opts.ServerType)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get server type: %w", err)
	}
	if serverType == nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("server type not found: %s", opts.ServerType)
	}

	image, err := c.resolveImage(ctx, opts.Image, serverType.Architecture)
	if err != nil {
		return hcloud.ServerCreateOpts{}, err
	}

	location, err := c.resolveLocation(ctx, opts.Location)
	if err != nil {
		return hcloud.ServerCreateOpts{}, err
	}

	createOpts := hcloud.ServerCreateOpts{
		Name:       opts.Name,
		ServerType: serverType,
		Image:      image,
		Location:   location,
		Labels:     opts.Labels,
		PublicNet: &hcloud.ServerCreatePublicNet{
			EnableIPv4: opts.EnablePublicIPv4,
			EnableIPv6: opts.EnablePublicIPv6,
		},
		StartAfterCreate: hcloud.Ptr(true),
	}
	if opts.SSHKey != nil {
		createOpts.SSHKeys = []*hcloud.SSHKey{opts.SSHKey}
	}
	if opts.Network != nil {
		createOpts.Networks = []*hcloud.Network{opts.Network}
	}
	return createOpts, nil
}
