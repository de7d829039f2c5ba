package config

import (
	"fmt"
	"net/netip"
	"regexp"
	"sort"
	"strings"
)

// ValidLocations contains all valid Hetzner Cloud datacenter locations.
// https://docs.hetzner.com/cloud/general/locations/
var ValidLocations = map[string]bool{
	"nbg1": true, // Nuremberg, Germany
	"fsn1": true, // Falkenstein, Germany
	"hel1": true, // Helsinki, Finland
	"ash":  true, // Ashburn, USA
	"hil":  true, // Hillsboro, USA
	"sin":  true, // Singapore
}

// ValidNetworkZones contains all valid Hetzner Cloud network zones.
// https://docs.hetzner.com/cloud/networks/overview/
var ValidNetworkZones = map[string]bool{
	"eu-central":   true,
	"us-east":      true,
	"us-west":      true,
	"ap-southeast": true,
}

// Server names double as hostnames and Kubernetes node names.
var nodeNamePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]{0,61}[a-z0-9])?$`)

var kubeVersionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Validate checks the configuration for common errors and returns a detailed error if validation fails.
func (c *Config) Validate() error {
	if c.ClusterName == "" {
		return fmt.Errorf("cluster_name is required")
	}
	if !nodeNamePattern.MatchString(c.ClusterName) {
		return fmt.Errorf("cluster_name %q must be a lowercase DNS label", c.ClusterName)
	}
	if c.HCloudToken == "" {
		return fmt.Errorf("hcloud_token is required (or set %s)", TokenEnvVar)
	}
	if !ValidLocations[c.Location] {
		return fmt.Errorf("invalid location %q: must be one of %v", c.Location, getMapKeys(ValidLocations))
	}

	if err := c.validateNetwork(); err != nil {
		return fmt.Errorf("network validation failed: %w", err)
	}
	if err := c.validateKubernetes(); err != nil {
		return fmt.Errorf("kubernetes validation failed: %w", err)
	}
	if err := c.validateNodes(); err != nil {
		return fmt.Errorf("node validation failed: %w", err)
	}
	if !c.Machine.PublicIPv4Enabled() && !c.Machine.PublicIPv6Enabled() {
		return fmt.Errorf("machine: at least one of public_ipv4 or public_ipv6 must be enabled for remote access")
	}

	return nil
}

func (c *Config) validateNetwork() error {
	if !ValidNetworkZones[c.Network.Zone] {
		return fmt.Errorf("invalid network zone %q: must be one of %v", c.Network.Zone, getMapKeys(ValidNetworkZones))
	}
	ipRange, err := netip.ParsePrefix(c.Network.IPRange)
	if err != nil {
		return fmt.Errorf("invalid ip_range %q: %w", c.Network.IPRange, err)
	}
	private, err := netip.ParsePrefix(c.Network.PrivateRange)
	if err != nil {
		return fmt.Errorf("invalid private_range %q: %w", c.Network.PrivateRange, err)
	}
	if !private.Contains(ipRange.Addr()) {
		return fmt.Errorf("private_range %s does not contain network ip_range %s", private, ipRange)
	}
	return nil
}

func (c *Config) validateKubernetes() error {
	if !kubeVersionPattern.MatchString(c.Kubernetes.Version) {
		return fmt.Errorf("version %q must be MAJOR.MINOR.PATCH", c.Kubernetes.Version)
	}
	podCIDR, err := netip.ParsePrefix(c.Kubernetes.PodNetworkCIDR)
	if err != nil {
		return fmt.Errorf("invalid pod_network_cidr %q: %w", c.Kubernetes.PodNetworkCIDR, err)
	}
	ipRange, err := netip.ParsePrefix(c.Network.IPRange)
	if err == nil && podCIDR.Overlaps(ipRange) {
		return fmt.Errorf("pod_network_cidr %s overlaps network ip_range %s", podCIDR, ipRange)
	}
	for name, u := range map[string]string{"rbac_url": c.Overlay.RBACURL, "network_url": c.Overlay.NetworkURL} {
		if !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("overlay %s %q must be an https URL", name, u)
		}
	}
	return nil
}

func (c *Config) validateNodes() error {
	if len(c.Nodes) == 0 {
		return fmt.Errorf("at least one node is required")
	}

	seen := make(map[string]bool, len(c.Nodes))
	controlPlanes := 0
	for _, n := range c.Nodes {
		if !nodeNamePattern.MatchString(n.Name) {
			return fmt.Errorf("node name %q must be a lowercase DNS label", n.Name)
		}
		if seen[n.Name] {
			return fmt.Errorf("duplicate node name %q", n.Name)
		}
		seen[n.Name] = true
		if !n.Role.Valid() {
			return fmt.Errorf("node %q has invalid role %q: must be one of %v", n.Name, n.Role, Roles)
		}
		if n.Role == RoleControlPlane {
			controlPlanes++
		}
	}

	if controlPlanes != 1 {
		return fmt.Errorf("exactly one control-plane node is required, got %d", controlPlanes)
	}
	return nil
}

func getMapKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
