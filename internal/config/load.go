package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// TokenEnvVar overrides hcloud_token from the config file.
const TokenEnvVar = "HCLOUD_TOKEN"

// LoadFile reads and parses the configuration from a YAML file.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates the result.
// Unknown keys are rejected so typos surface before any server is created.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	if token := os.Getenv(TokenEnvVar); token != "" {
		cfg.HCloudToken = token
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults fills every empty field with its default value.
func (c *Config) ApplyDefaults() {
	if c.Location == "" {
		c.Location = DefaultLocation
	}
	if c.SSH.User == "" {
		c.SSH.User = DefaultSSHUser
	}
	if c.SSH.PrivateKeyPath == "" {
		c.SSH.PrivateKeyPath = DefaultSSHKeyPath
	}
	c.SSH.PrivateKeyPath = expandHome(c.SSH.PrivateKeyPath)
	if c.Machine.Image == "" {
		c.Machine.Image = DefaultImage
	}
	if c.Machine.ServerType == "" {
		c.Machine.ServerType = DefaultServerType
	}
	if c.Network.IPRange == "" {
		c.Network.IPRange = DefaultNetworkRange
	}
	if c.Network.Zone == "" {
		c.Network.Zone = DefaultNetworkZone
	}
	if c.Network.PrivateRange == "" {
		c.Network.PrivateRange = DefaultPrivateRange
	}
	if c.Kubernetes.Version == "" {
		c.Kubernetes.Version = DefaultKubeVersion
	}
	c.Kubernetes.Version = strings.TrimPrefix(c.Kubernetes.Version, "v")
	if c.Kubernetes.PackageRevision == "" {
		c.Kubernetes.PackageRevision = DefaultPackageRev
	}
	if c.Kubernetes.PodNetworkCIDR == "" {
		c.Kubernetes.PodNetworkCIDR = DefaultPodNetworkCIDR
	}
	if c.Overlay.RBACURL == "" {
		c.Overlay.RBACURL = DefaultOverlayRBACURL
	}
	if c.Overlay.NetworkURL == "" {
		c.Overlay.NetworkURL = DefaultOverlayNetworkURL
	}
	if c.Parallelism <= 0 {
		c.Parallelism = DefaultParallelism
	}
	if c.KubeconfigPath == "" {
		c.KubeconfigPath = "kubeconfig"
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
