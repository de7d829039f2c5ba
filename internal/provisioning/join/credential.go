package join

import (
	"fmt"
	"net/netip"

	"github.com/imamik/hkube/internal/config"
	"github.com/imamik/hkube/internal/kubeadm"
	"github.com/imamik/hkube/internal/provisioning"
	"github.com/imamik/hkube/internal/remote"
)

// MintCredential produces the join credential on the control-plane node.
// Every call mints a fresh token.
func MintCredential(ctx *provisioning.Context, cp provisioning.ProvisionedNode) (*provisioning.ClusterJoinCredential, error) {
	privateRange, err := netip.ParsePrefix(ctx.Config.Network.PrivateRange)
	if err != nil {
		return nil, fmt.Errorf("invalid private range: %w", err)
	}

	ex, err := ctx.Executor(cp)
	if err != nil {
		return nil, err
	}

	addrs, err := remote.Output(ctx, ex, kubeadm.HostAddresses())
	if err != nil {
		return nil, fmt.Errorf("failed to list control-plane addresses: %w", err)
	}
	private, err := kubeadm.FirstAddressInRange(addrs, privateRange)
	if err != nil {
		return nil, err
	}

	out, err := ex.Run(ctx, kubeadm.TokenCreate())
	if err != nil {
		return nil, fmt.Errorf("failed to create join token: %w", err)
	}
	token, err := kubeadm.ParseToken(out.Stdout)
	if err != nil {
		return nil, err
	}

	ca, err := remote.ReadFile(ctx, ex, kubeadm.CACertPath, true)
	if err != nil {
		return nil, err
	}
	hash, err := kubeadm.DiscoveryHash(ca)
	if err != nil {
		return nil, err
	}

	return &provisioning.ClusterJoinCredential{
		Endpoint:   kubeadm.Endpoint(private, config.KubeAPIPort),
		Token:      token,
		CACertHash: hash,
	}, nil
}
