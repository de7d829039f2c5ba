//go:build e2e

package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr/funcr"
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hkube/internal/provisioning"
	"github.com/imamik/hkube/internal/util/labels"
	"github.com/imamik/hkube/internal/util/naming"
	"github.com/imamik/hkube/internal/util/retry"
)

// newTestObserver routes bootstrap logs to the test log at debug verbosity.
func newTestObserver(t *testing.T) provisioning.Observer {
	log := funcr.New(func(prefix, args string) {
		t.Log(prefix, args)
	}, funcr.Options{Verbosity: 1})
	return provisioning.NewLogrObserver(log)
}

// cleanupCluster removes every resource the bootstrap created for cluster.
// Errors are logged, never fatal, so one leftover does not hide the others.
func cleanupCluster(t *testing.T, client *hcloud.Client, cluster string) {
	t.Logf("[Cleanup] Removing resources of %s", cluster)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	servers, err := client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labels.SelectorForCluster(cluster)},
	})
	if err != nil {
		t.Logf("  [Cleanup] Failed to list servers: %v", err)
	}
	for _, server := range servers {
		result, _, err := client.Server.DeleteWithResult(ctx, server)
		if err == nil {
			err = client.Action.WaitFor(ctx, result.Action)
		}
		if err != nil {
			t.Logf("  [Cleanup] Failed to delete server %s: %v", server.Name, err)
			continue
		}
		t.Logf("  [Cleanup] Deleted server: %s", server.Name)
	}

	// Firewalls and networks stay referenced for a short while after their
	// servers are gone.
	deleteWithRetry(ctx, t, "firewall", naming.Firewall(cluster), func() error {
		fw, _, err := client.Firewall.Get(ctx, naming.Firewall(cluster))
		if err != nil || fw == nil {
			return retry.Fatal(err)
		}
		_, err = client.Firewall.Delete(ctx, fw)
		return err
	})
	deleteWithRetry(ctx, t, "network", naming.Network(cluster), func() error {
		network, _, err := client.Network.Get(ctx, naming.Network(cluster))
		if err != nil || network == nil {
			return retry.Fatal(err)
		}
		_, err = client.Network.Delete(ctx, network)
		return err
	})
	deleteWithRetry(ctx, t, "ssh key", naming.SSHKey(cluster), func() error {
		key, _, err := client.SSHKey.Get(ctx, naming.SSHKey(cluster))
		if err != nil || key == nil {
			return retry.Fatal(err)
		}
		_, err = client.SSHKey.Delete(ctx, key)
		return err
	})

	t.Log("[Cleanup] Cleanup complete")
}

func deleteWithRetry(ctx context.Context, t *testing.T, kind, name string, del func() error) {
	err := retry.WithExponentialBackoff(ctx, del,
		retry.WithMaxRetries(6),
		retry.WithInitialDelay(5*time.Second),
	)
	if err != nil {
		t.Logf("  [Cleanup] Failed to delete %s %s: %v", kind, name, err)
		return
	}
	t.Logf("  [Cleanup] Deleted %s: %s", kind, name)
}
