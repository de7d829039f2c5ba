package kubeadm

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"

	"k8s.io/client-go/tools/clientcmd"
	certutil "k8s.io/client-go/util/cert"
)

// DiscoveryHashPrefix marks the hash algorithm in a discovery pin.
const DiscoveryHashPrefix = "sha256:"

// DiscoveryHash returns the pin kubeadm join uses to trust the cluster CA:
// the SHA-256 of the first certificate's SubjectPublicKeyInfo.
func DiscoveryHash(caPEM []byte) (string, error) {
	certs, err := certutil.ParseCertsPEM(caPEM)
	if err != nil {
		return "", fmt.Errorf("failed to parse CA certificate: %w", err)
	}
	return hashCert(certs[0]), nil
}

func hashCert(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	return DiscoveryHashPrefix + hex.EncodeToString(sum[:])
}

// ValidateKubeconfig checks that data is a usable kubeconfig and returns the
// API server URL of its current context.
func ValidateKubeconfig(data []byte) (string, error) {
	cfg, err := clientcmd.Load(data)
	if err != nil {
		return "", fmt.Errorf("failed to parse kubeconfig: %w", err)
	}
	if err := clientcmd.Validate(*cfg); err != nil {
		return "", fmt.Errorf("invalid kubeconfig: %w", err)
	}
	kctx, ok := cfg.Contexts[cfg.CurrentContext]
	if !ok {
		return "", fmt.Errorf("kubeconfig has no current context")
	}
	cluster, ok := cfg.Clusters[kctx.Cluster]
	if !ok {
		return "", fmt.Errorf("kubeconfig context %q references unknown cluster %q", cfg.CurrentContext, kctx.Cluster)
	}
	return cluster.Server, nil
}

// RewriteServer points every cluster entry of a kubeconfig at server.
// admin.conf addresses the API server by its advertise address, which is
// not reachable from outside the private network.
func RewriteServer(data []byte, server string) ([]byte, error) {
	cfg, err := clientcmd.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse kubeconfig: %w", err)
	}
	for _, cluster := range cfg.Clusters {
		cluster.Server = server
	}
	out, err := clientcmd.Write(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode kubeconfig: %w", err)
	}
	return out, nil
}
