package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hkube/cmd/hkube/handlers"
)

// Apply returns the command that provisions and bootstraps the cluster.
//
// Flags:
//
//	--config, -c: Path to cluster configuration YAML file (default: hkube.yaml)
//	--metrics-file: Write run metrics in the Prometheus textfile format
//
// Environment variables:
//
//	HCLOUD_TOKEN: Hetzner Cloud API token (overrides hcloud_token)
func Apply() *cobra.Command {
	var configPath, metricsFile string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Provision servers and bootstrap the cluster",
		Long: `Provision servers on Hetzner Cloud and bootstrap them into a kubeadm cluster.

Every stage converges: servers that already exist are reused, an initialized
control plane is not initialized again and joined workers are left alone.
Worker failures are reported in the summary without stopping the other nodes.

Examples:
  # Bootstrap using hkube.yaml in the current directory
  hkube apply

  # Bootstrap using a specific config file and record metrics
  hkube apply -c production.yaml --metrics-file hkube.prom`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Apply(cmd.Context(), handlers.ApplyOptions{
				ConfigPath:  configPath,
				MetricsFile: metricsFile,
				Verbose:     verbose,
				Out:         cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", handlers.DefaultConfigFile, "Path to configuration file")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write run metrics to this file")

	return cmd
}
