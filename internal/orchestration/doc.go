// Package orchestration provides high-level workflow coordination for cluster bootstrap.
//
// This package orchestrates the bootstrap workflow by delegating to specialized
// phases in the internal/provisioning subpackages. It defines the execution order
// and hands the structured output of each phase to the next through
// provisioning.State.
//
// # Workflow
//
// The Bootstrapper executes the following phases in order:
//  1. Validation - Pre-flight configuration validation
//  2. Compute - SSH key, network, firewall and one server per node
//  3. Readiness - Wait for every node's SSH port
//  4. Roles - Group nodes by role
//  5. Prepare - Package repository, runtime and pinned tools on every node
//  6. Control plane - kubeadm init, credential export, pod network overlay
//  7. Join - Mint one join credential and join every worker
//
// # Usage
//
//	b := orchestration.NewBootstrapper(cfg, infra, connector, fetcher,
//	    orchestration.WithObserver(observer),
//	    orchestration.WithPublicKey(publicKey),
//	)
//	outcome, err := b.Run(ctx)
//
// Run is idempotent: every phase converges on existing resources, and
// kubeadm init is guarded by a probe of the running control plane.
// Node-scoped failures (preparation of a worker, a worker's join) do not
// abort the run; they are returned as provisioning.NodeErrors alongside a
// partial Outcome.
package orchestration
