package compute

import (
	"github.com/imamik/hkube/internal/provisioning"
)

const phase = "compute"

// Provisioner handles compute resource provisioning (prerequisites and servers).
type Provisioner struct{}

// NewProvisioner creates a new compute provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface.
// Prerequisites are ensured first since every server references them,
// then all servers are created in parallel.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	if err := p.ensurePrerequisites(ctx); err != nil {
		return provisioning.StageError(provisioning.ErrProvisioning, phase, err)
	}
	return p.provisionServers(ctx)
}
