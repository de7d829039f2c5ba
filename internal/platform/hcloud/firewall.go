package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// EnsureFirewall ensures that a firewall exists with the given rules and is
// applied to the servers matching applyToLabelSelector.
func (c *RealClient) EnsureFirewall(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string, applyToLabelSelector string) (*hcloud.Firewall, error) {
	var applyTo []hcloud.FirewallResource
	if applyToLabelSelector != "" {
		applyTo = []hcloud.FirewallResource{labelSelectorResource(applyToLabelSelector)}
	}

	fw, err := (&EnsureOperation[*hcloud.Firewall, hcloud.FirewallCreateOpts, hcloud.FirewallSetRulesOpts]{
		Name:         name,
		ResourceType: "firewall",
		Get:          c.client.Firewall.Get,
		Create:       c.createFirewall,
		Update:       c.client.Firewall.SetRules,
		CreateOptsMapper: func() hcloud.FirewallCreateOpts {
			return hcloud.FirewallCreateOpts{
				Name:    name,
				Rules:   rules,
				Labels:  labels,
				ApplyTo: applyTo,
			}
		},
		UpdateOptsMapper: func(_ *hcloud.Firewall) hcloud.FirewallSetRulesOpts {
			return hcloud.FirewallSetRulesOpts{
				Rules: rules,
			}
		},
	}).Execute(ctx, c)
	if err != nil {
		return nil, err
	}

	if applyToLabelSelector == "" || appliedToSelector(fw, applyToLabelSelector) {
		return fw, nil
	}

	actions, _, err := c.client.Firewall.ApplyResources(ctx, fw, applyTo)
	if err != nil {
		return nil, fmt.Errorf("failed to apply firewall %s to %q: %w", name, applyToLabelSelector, err)
	}
	if err := waitForActions(ctx, c.client, actions...); err != nil {
		return nil, fmt.Errorf("failed to wait for firewall apply: %w", err)
	}
	return fw, nil
}

func (c *RealClient) createFirewall(ctx context.Context, opts hcloud.FirewallCreateOpts) (*CreateResult[*hcloud.Firewall], *hcloud.Response, error) {
	res, resp, err := c.client.Firewall.Create(ctx, opts)
	if err != nil {
		return nil, resp, err
	}
	return &CreateResult[*hcloud.Firewall]{
		Resource: res.Firewall,
		Actions:  res.Actions,
	}, resp, nil
}

func labelSelectorResource(selector string) hcloud.FirewallResource {
	return hcloud.FirewallResource{
		Type:          hcloud.FirewallResourceTypeLabelSelector,
		LabelSelector: &hcloud.FirewallResourceLabelSelector{Selector: selector},
	}
}

func appliedToSelector(fw *hcloud.Firewall, selector string) bool {
	for _, res := range fw.AppliedTo {
		if res.Type == hcloud.FirewallResourceTypeLabelSelector &&
			res.LabelSelector != nil && res.LabelSelector.Selector == selector {
			return true
		}
	}
	return false
}
