package orchestration

import (
	"fmt"
	"strings"

	"github.com/imamik/hkube/internal/config"
	"github.com/imamik/hkube/internal/provisioning"
)

// Outcome is the result of a bootstrap run.
type Outcome struct {
	// Roles maps role name to node names.
	Roles map[string][]string
	// Addresses maps role name to the nodes' external addresses.
	Addresses map[string][]string
	Nodes     []provisioning.ProvisionedNode

	// JoinCredential is held in memory only; it is never written out.
	JoinCredential *provisioning.ClusterJoinCredential
	Kubeconfig     []byte

	Joins    map[string]provisioning.JoinStatus
	Failures provisioning.NodeErrors
}

func newOutcome(state *provisioning.State) *Outcome {
	roles := provisioning.NewRoleGroup(state.Nodes)
	addresses := make(map[string][]string, len(config.Roles))
	for _, role := range config.Roles {
		addresses[string(role)] = roles.Addresses(role)
	}
	return &Outcome{
		Roles:          roles.Map(),
		Addresses:      addresses,
		Nodes:          state.Nodes,
		JoinCredential: state.JoinCredential,
		Kubeconfig:     state.Kubeconfig,
		Joins:          state.JoinResults(),
		Failures:       state.Failures(),
	}
}

// Summary renders a human-readable report of the run, one node per line.
func (o *Outcome) Summary() string {
	var b strings.Builder
	for _, n := range o.Nodes {
		fmt.Fprintf(&b, "%-14s %-10s %-16s %-16s %s\n", n.Role(), n.Name(), n.ExternalAddress, n.InternalAddress, o.status(n))
	}
	if o.JoinCredential != nil {
		fmt.Fprintf(&b, "join endpoint: %s\n", o.JoinCredential.Endpoint)
	}
	if len(o.Failures) > 0 {
		fmt.Fprintf(&b, "%d node(s) failed:\n", len(o.Failures))
		for _, f := range o.Failures {
			fmt.Fprintf(&b, "  %s\n", f)
		}
	}
	return b.String()
}

func (o *Outcome) status(n provisioning.ProvisionedNode) string {
	if f := o.Failures.ForNode(n.Name()); f != nil {
		return "failed (" + f.Stage + ")"
	}
	if n.Role() == config.RoleControlPlane {
		if len(o.Kubeconfig) > 0 {
			return "running"
		}
		return "pending"
	}
	if s, ok := o.Joins[n.Name()]; ok {
		return string(s)
	}
	return "pending"
}
