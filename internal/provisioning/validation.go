package provisioning

import (
	"fmt"
	"net/netip"

	"github.com/imamik/hkube/internal/config"
)

// ValidationWarning is a configuration concern that does not block the run.
type ValidationWarning struct {
	Field   string
	Message string
}

func (w ValidationWarning) String() string {
	return fmt.Sprintf("%s: %s", w.Field, w.Message)
}

// ValidationPhase implements the Phase interface for pre-flight validation.
type ValidationPhase struct{}

// NewValidationPhase creates a new validation phase.
func NewValidationPhase() *ValidationPhase {
	return &ValidationPhase{}
}

// Name implements the Phase interface.
func (vp *ValidationPhase) Name() string {
	return "validation"
}

// Provision implements the Phase interface.
func (vp *ValidationPhase) Provision(ctx *Context) error {
	if ctx.Config == nil {
		return fmt.Errorf("%w: no configuration", ErrConfiguration)
	}
	if err := ctx.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	for _, w := range Warnings(ctx.Config) {
		ctx.Observer.Event(Event{
			Type:    EventValidationWarning,
			Phase:   vp.Name(),
			Message: w.Message,
			Fields:  map[string]string{"field": w.Field},
		})
	}
	return nil
}

// Warnings returns non-fatal concerns about a valid configuration.
func Warnings(cfg *config.Config) []ValidationWarning {
	var warnings []ValidationWarning

	if len(cfg.NodesByRole(config.RoleWorker)) == 0 {
		warnings = append(warnings, ValidationWarning{
			Field:   "nodes",
			Message: "no worker nodes declared; workloads will not schedule on the tainted control plane",
		})
	}

	if cfg.Machine.Preemptible {
		warnings = append(warnings, ValidationWarning{
			Field:   "machine.preemptible",
			Message: "Hetzner Cloud has no preemptible servers; the flag is only recorded as a label",
		})
	}

	if !cfg.Machine.PublicIPv4Enabled() {
		warnings = append(warnings, ValidationWarning{
			Field:   "machine.public_ipv4",
			Message: "servers are IPv6-only; this host needs IPv6 connectivity to reach them",
		})
	}

	if prefix, err := netip.ParsePrefix(cfg.Network.IPRange); err == nil && prefix.Bits() > 16 {
		warnings = append(warnings, ValidationWarning{
			Field:   "network.ip_range",
			Message: fmt.Sprintf("prefix /%d is small, recommended /16 or larger", prefix.Bits()),
		})
	}

	return warnings
}
