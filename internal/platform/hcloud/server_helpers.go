package hcloud

import (
	"context"
	"fmt"
	"net"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// resolveImage resolves an image name for the server type's architecture.
func (c *RealClient) resolveImage(ctx context.Context, name string, arch hcloud.Architecture) (*hcloud.Image, error) {
	image, _, err := c.client.Image.GetForArchitecture(ctx, name, arch)
	if err != nil {
		return nil, fmt.Errorf("failed to get image %s: %w", name, err)
	}
	if image == nil {
		return nil, fmt.Errorf("image not found: %s (%s)", name, arch)
	}
	return image, nil
}

// resolveLocation resolves a location name to a location object.
func (c *RealClient) resolveLocation(ctx context.Context, location string) (*hcloud.Location, error) {
	if location == "" {
		return nil, nil
	}

	locObj, _, err := c.client.Location.Get(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to get location %s: %w", location, err)
	}
	if locObj == nil {
		return nil, fmt.Errorf("location not found: %s", location)
	}
	return locObj, nil
}

// attachServerToNetwork attaches a server to a network; HCloud assigns the IP from the subnet.
func (c *RealClient) attachServerToNetwork(ctx context.Context, server *hcloud.Server, network *hcloud.Network) error {
	action, _, err := c.client.Server.AttachToNetwork(ctx, server, hcloud.ServerAttachToNetworkOpts{
		Network: network,
	})
	if err != nil {
		return fmt.Errorf("failed to attach server %s to network: %w", server.Name, err)
	}
	if err := c.client.Action.WaitFor(ctx, action); err != nil {
		return fmt.Errorf("failed to wait for network attachment: %w", err)
	}
	return nil
}

func (c *RealClient) powerOn(ctx context.Context, server *hcloud.Server) error {
	action, _, err := c.client.Server.Poweron(ctx, server)
	if err != nil {
		return fmt.Errorf("failed to power on server %s: %w", server.Name, err)
	}
	if err := c.client.Action.WaitFor(ctx, action); err != nil {
		return fmt.Errorf("failed to wait for power on: %w", err)
	}
	return nil
}

func attachedTo(server *hcloud.Server, networkID int64) bool {
	for _, pn := range server.PrivateNet {
		if pn.Network != nil && pn.Network.ID == networkID {
			return true
		}
	}
	return false
}

// ServerIPv4 returns the public IPv4 of the server, or "" if none.
func ServerIPv4(server *hcloud.Server) string {
	if server == nil || server.PublicNet.IPv4.IP == nil || server.PublicNet.IPv4.IP.IsUnspecified() {
		return ""
	}
	return server.PublicNet.IPv4.IP.String()
}

// ServerIPv6 returns the first host address of the server's public IPv6
// network (the ::1 address Hetzner configures), or "" if none.
func ServerIPv6(server *hcloud.Server) string {
	if server == nil || server.PublicNet.IPv6.IP == nil || server.PublicNet.IPv6.IP.IsUnspecified() {
		return ""
	}
	ip := make(net.IP, net.IPv6len)
	copy(ip, server.PublicNet.IPv6.IP.To16())
	if ip[net.IPv6len-1] == 0 {
		ip[net.IPv6len-1] = 1
	}
	return ip.String()
}

// ServerPublicIP prefers IPv4 and falls back to IPv6.
func ServerPublicIP(server *hcloud.Server) string {
	if ip := ServerIPv4(server); ip != "" {
		return ip
	}
	return ServerIPv6(server)
}

// ServerPrivateIP returns the server's address in the given network, or "" if not attached yet.
func ServerPrivateIP(server *hcloud.Server, networkID int64) string {
	if server == nil {
		return ""
	}
	for _, pn := range server.PrivateNet {
		if pn.Network != nil && pn.Network.ID == networkID && pn.IP != nil && !pn.IP.IsUnspecified() {
			return pn.IP.String()
		}
	}
	return ""
}
