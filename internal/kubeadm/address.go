package kubeadm

import (
	"fmt"
	"net/netip"
	"strings"
)

// FirstAddressInRange returns the first address in the whitespace-separated
// list (as printed by hostname -I) that lies inside prefix.
func FirstAddressInRange(addresses string, prefix netip.Prefix) (string, error) {
	for _, field := range strings.Fields(addresses) {
		addr, err := netip.ParseAddr(field)
		if err != nil {
			continue
		}
		if prefix.Contains(addr.Unmap()) {
			return addr.Unmap().String(), nil
		}
	}
	return "", fmt.Errorf("no address in %s among %q", prefix, strings.TrimSpace(addresses))
}
