// Package main is the entry point for the hkube CLI.
//
// hkube provisions servers on Hetzner Cloud and bootstraps them into a
// kubeadm cluster with a single control-plane node and Calico networking.
// Re-running apply against the same configuration converges instead of
// duplicating servers or re-initializing the control plane.
//
// For detailed usage information, run:
//
//	hkube --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/hkube/cmd/hkube/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
