package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"golang.org/x/crypto/ssh"
)

// EnsureSSHKey uploads publicKey under name unless a key with that name
// exists. An existing key with a different fingerprint is an error: servers
// would be created with a key the caller cannot use.
func (c *RealClient) EnsureSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error) {
	parsed, _, _, _, err := ssh.ParseAuthorizedKey([]byte(publicKey))
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	fingerprint := ssh.FingerprintLegacyMD5(parsed)

	return (&EnsureOperation[*hcloud.SSHKey, hcloud.SSHKeyCreateOpts, any]{
		Name:         name,
		ResourceType: "ssh key",
		Get:          c.client.SSHKey.Get,
		Create:       simpleCreate(c.client.SSHKey.Create),
		Validate: func(key *hcloud.SSHKey) error {
			if key.Fingerprint != fingerprint {
				return fmt.Errorf("ssh key %s exists with fingerprint %s (expected %s)", name, key.Fingerprint, fingerprint)
			}
			return nil
		},
		CreateOptsMapper: func() hcloud.SSHKeyCreateOpts {
			return hcloud.SSHKeyCreateOpts{
				Name:      name,
				PublicKey: publicKey,
				Labels:    labels,
			}
		},
	}).Execute(ctx, c)
}
