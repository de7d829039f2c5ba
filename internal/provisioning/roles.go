package provisioning

import (
	"fmt"

	"github.com/imamik/hkube/internal/config"
)

// RoleGroup partitions provisioned nodes by role. Every node appears in
// exactly one group and nodes keep their input order within a group.
type RoleGroup struct {
	byRole map[config.Role][]ProvisionedNode
	order  []config.Role
}

// NewRoleGroup groups nodes by their declared role.
func NewRoleGroup(nodes []ProvisionedNode) RoleGroup {
	g := RoleGroup{byRole: make(map[config.Role][]ProvisionedNode)}
	for _, role := range config.Roles {
		g.byRole[role] = nil
		g.order = append(g.order, role)
	}
	for _, n := range nodes {
		if _, ok := g.byRole[n.Role()]; !ok {
			g.order = append(g.order, n.Role())
		}
		g.byRole[n.Role()] = append(g.byRole[n.Role()], n)
	}
	return g
}

// Nodes returns the nodes of role. Unknown or empty roles yield an empty slice.
func (g RoleGroup) Nodes(role config.Role) []ProvisionedNode {
	return append([]ProvisionedNode{}, g.byRole[role]...)
}

// Addresses returns the external addresses of the nodes of role.
func (g RoleGroup) Addresses(role config.Role) []string {
	nodes := g.byRole[role]
	addrs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		addrs = append(addrs, n.ExternalAddress)
	}
	return addrs
}

// ControlPlane returns the single control-plane node. Zero or several
// control-plane nodes is a configuration error.
func (g RoleGroup) ControlPlane() (ProvisionedNode, error) {
	nodes := g.byRole[config.RoleControlPlane]
	if len(nodes) != 1 {
		return ProvisionedNode{}, fmt.Errorf("%w: expected exactly one control-plane node, got %d", ErrConfiguration, len(nodes))
	}
	return nodes[0], nil
}

// Workers returns the worker nodes.
func (g RoleGroup) Workers() []ProvisionedNode {
	return g.Nodes(config.RoleWorker)
}

// Map returns role name to node names. Both built-in roles are always present.
func (g RoleGroup) Map() map[string][]string {
	out := make(map[string][]string, len(g.order))
	for _, role := range g.order {
		names := make([]string, 0, len(g.byRole[role]))
		for _, n := range g.byRole[role] {
			names = append(names, n.Name())
		}
		out[string(role)] = names
	}
	return out
}
