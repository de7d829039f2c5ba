package compute

import (
	"fmt"
	"net"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hkube/internal/config"
	"github.com/imamik/hkube/internal/provisioning"
	"github.com/imamik/hkube/internal/util/labels"
	"github.com/imamik/hkube/internal/util/naming"
)

func (p *Provisioner) ensurePrerequisites(ctx *provisioning.Context) error {
	cfg := ctx.Config
	clusterLabels := labels.NewLabelBuilder(cfg.ClusterName).Build()

	name := naming.SSHKey(cfg.ClusterName)
	provisioning.LogResourceCreating(ctx.Observer, phase, "ssh key", name)
	key, err := ctx.Infra.EnsureSSHKey(ctx, name, ctx.PublicKey, clusterLabels)
	if err != nil {
		return fmt.Errorf("failed to ensure ssh key: %w", err)
	}
	ctx.State.SSHKey = key
	provisioning.LogResourceCreated(ctx.Observer, phase, "ssh key", name, strconv.FormatInt(key.ID, 10))

	name = naming.Network(cfg.ClusterName)
	provisioning.LogResourceCreating(ctx.Observer, phase, "network", name)
	network, err := ctx.Infra.EnsureNetwork(ctx, name, cfg.Network.IPRange, clusterLabels)
	if err != nil {
		return fmt.Errorf("failed to ensure network: %w", err)
	}
	// One subnet spanning the whole range; servers get addresses from it.
	if err := ctx.Infra.EnsureSubnet(ctx, network, cfg.Network.IPRange, cfg.Network.Zone); err != nil {
		return fmt.Errorf("failed to ensure subnet: %w", err)
	}
	ctx.State.Network = network
	provisioning.LogResourceCreated(ctx.Observer, phase, "network", name, strconv.FormatInt(network.ID, 10))

	name = naming.Firewall(cfg.ClusterName)
	provisioning.LogResourceCreating(ctx.Observer, phase, "firewall", name)
	firewall, err := ctx.Infra.EnsureFirewall(ctx, name, FirewallRules(), clusterLabels, labels.SelectorForCluster(cfg.ClusterName))
	if err != nil {
		return fmt.Errorf("failed to ensure firewall: %w", err)
	}
	ctx.State.Firewall = firewall
	provisioning.LogResourceCreated(ctx.Observer, phase, "firewall", name, strconv.FormatInt(firewall.ID, 10))

	return nil
}

// FirewallRules returns the inbound rules of the cluster firewall: SSH for
// bootstrap, the Kubernetes API and ICMP. Traffic on the private network is
// not filtered by cloud firewalls.
func FirewallRules() []hcloud.FirewallRule {
	anywhere := []net.IPNet{mustCIDR("0.0.0.0/0"), mustCIDR("::/0")}
	tcp := func(port int, description string) hcloud.FirewallRule {
		return hcloud.FirewallRule{
			Description: hcloud.Ptr(description),
			Direction:   hcloud.FirewallRuleDirectionIn,
			Protocol:    hcloud.FirewallRuleProtocolTCP,
			Port:        hcloud.Ptr(strconv.Itoa(port)),
			SourceIPs:   anywhere,
		}
	}
	return []hcloud.FirewallRule{
		tcp(config.SSHPort, "ssh"),
		tcp(config.KubeAPIPort, "kube-apiserver"),
		{
			Description: hcloud.Ptr("icmp"),
			Direction:   hcloud.FirewallRuleDirectionIn,
			Protocol:    hcloud.FirewallRuleProtocolICMP,
			SourceIPs:   anywhere,
		},
	}
}

func mustCIDR(s string) net.IPNet {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return *n
}
