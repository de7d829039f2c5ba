// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to handler functions in the handlers
// package.
package commands

import "github.com/spf13/cobra"

var verbose bool

// Root returns the root command for the hkube CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hkube",
		Short:         "Bootstrap kubeadm clusters on Hetzner Cloud",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(Apply())
	cmd.AddCommand(Version())

	return cmd
}
