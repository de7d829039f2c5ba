package hcloud

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hkube/internal/util/retry"
)

// CreateResult wraps the result of a resource creation operation.
// It handles both single and multiple actions that may need to be awaited.
type CreateResult[T any] struct {
	Resource T
	Action   *hcloud.Action
	Actions  []*hcloud.Action
}

// EnsureOperation encapsulates get-or-create logic for any hcloud resource.
// It supports optional update and validation logic for existing resources.
//
// Ensure with update:
//
//	EnsureOperation{
//	    // ... other fields
//	    Update: func(ctx context.Context, fw *hcloud.Firewall, opts hcloud.FirewallSetRulesOpts) ([]*hcloud.Action, *hcloud.Response, error) {
//	        return c.client.Firewall.SetRules(ctx, fw, opts)
//	    },
//	    UpdateOptsMapper: func(fw *hcloud.Firewall) hcloud.FirewallSetRulesOpts {
//	        return hcloud.FirewallSetRulesOpts{Rules: rules}
//	    },
//	}
type EnsureOperation[T any, CreateOpts any, UpdateOpts any] struct {
	Name         string
	ResourceType string

	// Get retrieves the resource by name
	Get func(ctx context.Context, name string) (T, *hcloud.Response, error)

	// Create creates the resource with the given options
	Create func(ctx context.Context, opts CreateOpts) (*CreateResult[T], *hcloud.Response, error)

	// Update converges an existing resource (optional)
	Update func(ctx context.Context, resource T, opts UpdateOpts) ([]*hcloud.Action, *hcloud.Response, error)

	// Validate checks if existing resource matches desired state (optional)
	Validate func(resource T) error

	// CreateOptsMapper maps input parameters to create options
	CreateOptsMapper func() CreateOpts

	// UpdateOptsMapper maps input parameters to update options (required if Update is provided)
	UpdateOptsMapper func(resource T) UpdateOpts
}

// Execute performs the ensure operation: get existing resource, update/validate if needed, or create new.
// Locked resources are retried with exponential backoff; any other API error is returned as is.
func (op *EnsureOperation[T, CreateOpts, UpdateOpts]) Execute(
	ctx context.Context,
	client *RealClient,
) (T, error) {
	var result T
	err := retry.WithExponentialBackoff(ctx, func() error {
		res, err := op.execute(ctx, client)
		if err != nil {
			if isResourceLocked(err) {
				return err
			}
			return retry.Fatal(err)
		}
		result = res
		return nil
	},
		retry.WithMaxRetries(client.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(client.timeouts.RetryInitialDelay))
	if err != nil {
		var zero T
		return zero, unwrapFatal(err)
	}
	return result, nil
}

func (op *EnsureOperation[T, CreateOpts, UpdateOpts]) execute(ctx context.Context, client *RealClient) (T, error) {
	var zero T

	resource, _, err := op.Get(ctx, op.Name)
	if err != nil {
		return zero, fmt.Errorf("failed to get %s %s: %w", op.ResourceType, op.Name, err)
	}

	if !reflect.ValueOf(resource).IsNil() {
		if op.Validate != nil {
			if err := op.Validate(resource); err != nil {
				return zero, err
			}
		}

		if op.Update != nil && op.UpdateOptsMapper != nil {
			actions, _, err := op.Update(ctx, resource, op.UpdateOptsMapper(resource))
			if err != nil {
				return zero, fmt.Errorf("failed to update %s %s: %w", op.ResourceType, op.Name, err)
			}
			if err := waitForActions(ctx, client.client, actions...); err != nil {
				return zero, fmt.Errorf("failed to wait for %s update: %w", op.ResourceType, err)
			}
		}

		return resource, nil
	}

	result, _, err := op.Create(ctx, op.CreateOptsMapper())
	if err != nil {
		return zero, fmt.Errorf("failed to create %s %s: %w", op.ResourceType, op.Name, err)
	}

	if err := waitForActionResult(ctx, client.client, result); err != nil {
		return zero, fmt.Errorf("failed to wait for %s creation: %w", op.ResourceType, err)
	}

	return result.Resource, nil
}

// unwrapFatal strips the retry package's fatal wrapper so callers see the API error message.
func unwrapFatal(err error) error {
	var fatal *retry.FatalError
	if errors.As(err, &fatal) {
		return fatal.Err
	}
	return err
}

// waitForActions waits for one or more actions to complete.
func waitForActions(ctx context.Context, client *hcloud.Client, actions ...*hcloud.Action) error {
	if len(actions) == 0 {
		return nil
	}
	return client.Action.WaitFor(ctx, actions...)
}

// waitForActionResult waits for actions from a CreateResult.
// Handles both singular Action and plural Actions fields.
func waitForActionResult[T any](ctx context.Context, client *hcloud.Client, result *CreateResult[T]) error {
	if result.Action != nil {
		return client.Action.WaitFor(ctx, result.Action)
	}
	if len(result.Actions) > 0 {
		return client.Action.WaitFor(ctx, result.Actions...)
	}
	return nil
}

// simpleCreate wraps create functions returning the resource directly.
// Use for: SSHKey, Network (return Resource, Response, error)
func simpleCreate[T any, Opts any](
	createFn func(context.Context, Opts) (T, *hcloud.Response, error),
) func(context.Context, Opts) (*CreateResult[T], *hcloud.Response, error) {
	return func(ctx context.Context, opts Opts) (*CreateResult[T], *hcloud.Response, error) {
		resource, resp, err := createFn(ctx, opts)
		if err != nil {
			return nil, resp, err
		}
		return &CreateResult[T]{Resource: resource}, resp, nil
	}
}
