package kubeadm

import (
	"fmt"
	"strings"

	bootstraputil "k8s.io/cluster-bootstrap/token/util"
)

// ParseToken extracts the bootstrap token from kubeadm token create output.
// kubeadm may print warnings before the token, so the last non-empty line
// that is a well-formed token wins.
func ParseToken(output string) (string, error) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		candidate := strings.TrimSpace(lines[i])
		if candidate == "" {
			continue
		}
		if bootstraputil.IsValidBootstrapToken(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no bootstrap token in kubeadm output %q", strings.TrimSpace(output))
}
