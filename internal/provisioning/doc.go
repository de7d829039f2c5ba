// Package provisioning provides shared types, interfaces, and orchestration for cluster bootstrap.
//
// # Subpackages
//
//   - compute/: SSH key, network, firewall and one server per declared node
//   - readiness/: waits until every node accepts SSH connections
//   - prepare/: package repository, container runtime and pinned tooling
//   - controlplane/: kubeadm init, admin credentials and the pod network
//   - join/: join credential on the control plane, kubeadm join on workers
//
// # Core Types
//
// Context carries configuration, state, provider, remote connector, observer and metrics.
// Phase defines a provisioning step with Name() and Provision() methods.
// State accumulates results from each phase; every stage reads what it needs
// from the previous one instead of relying on ambient execution order.
//
// Failures are classified by the sentinel kinds in errors.go. A run-scoped
// failure aborts the pipeline; a node-scoped failure is recorded in State
// and the run continues for the other nodes.
package provisioning
