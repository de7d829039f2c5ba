package keygen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
)

// DefaultBits is the RSA size used when a key has to be generated.
const DefaultBits = 4096

// KeyPair holds an SSH key pair in ready-to-use formats.
type KeyPair struct {
	// PrivateKey is the private key in PEM format.
	PrivateKey []byte
	// PublicKey is the public key in OpenSSH authorized_keys format.
	PublicKey []byte
}

// GenerateRSAKeyPair generates a new RSA key pair with the specified bit size.
// Common bit sizes are 2048 (minimum recommended) and 4096 (high security).
func GenerateRSAKeyPair(bits int) (*KeyPair, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA private key: %w", err)
	}

	if err := privateKey.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate RSA private key: %w", err)
	}

	privateKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	publicKey, err := ssh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}

	return &KeyPair{
		PrivateKey: privateKeyPEM,
		PublicKey:  ssh.MarshalAuthorizedKey(publicKey),
	}, nil
}

// FromPrivateKey derives the authorized_keys public half of a PEM private key.
func FromPrivateKey(privateKeyPEM []byte) (*KeyPair, error) {
	signer, err := ssh.ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &KeyPair{
		PrivateKey: privateKeyPEM,
		PublicKey:  ssh.MarshalAuthorizedKey(signer.PublicKey()),
	}, nil
}

// LoadOrGenerate reads the private key at path, or generates a new RSA key
// and writes it there (mode 0600) when the file does not exist. The boolean
// reports whether a new key was generated.
func LoadOrGenerate(path string, bits int) (*KeyPair, bool, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err == nil {
		kp, err := FromPrivateKey(data)
		return kp, false, err
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, fmt.Errorf("failed to read private key %s: %w", path, err)
	}

	kp, err := GenerateRSAKeyPair(bits)
	if err != nil {
		return nil, false, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, false, fmt.Errorf("failed to create key directory: %w", err)
		}
	}
	if err := os.WriteFile(path, kp.PrivateKey, 0o600); err != nil {
		return nil, false, fmt.Errorf("failed to write private key %s: %w", path, err)
	}
	if err := os.WriteFile(path+".pub", kp.PublicKey, 0o644); err != nil { // #nosec G306
		return nil, false, fmt.Errorf("failed to write public key: %w", err)
	}
	return kp, true, nil
}
