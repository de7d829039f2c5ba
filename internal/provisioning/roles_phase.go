package provisioning

// RolesPhase groups the provisioned nodes by role and checks there is
// exactly one control-plane node.
type RolesPhase struct{}

// NewRolesPhase creates the role registry phase.
func NewRolesPhase() *RolesPhase { return &RolesPhase{} }

// Name implements Phase.
func (*RolesPhase) Name() string { return "roles" }

// Provision implements Phase.
func (*RolesPhase) Provision(ctx *Context) error {
	ctx.State.Roles = NewRoleGroup(ctx.State.Nodes)
	if _, err := ctx.State.Roles.ControlPlane(); err != nil {
		return err
	}
	ctx.Metrics.SetNodes(ctx.State.Roles)
	for role, names := range ctx.State.Roles.Map() {
		ctx.Observer.Printf("[roles] %s: %v", role, names)
	}
	return nil
}
