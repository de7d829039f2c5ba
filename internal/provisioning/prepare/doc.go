// Package prepare implements the node preparer phase.
//
// Every node, regardless of role, runs the same ordered steps:
//
//  1. repository: register the pkgs.k8s.io apt repository and signing key
//  2. packages: refresh metadata and upgrade installed packages
//  3. runtime: kernel modules, sysctls and containerd with the systemd cgroup driver
//  4. tools: pinned kubelet, kubeadm and kubectl, held at that version
//
// Each step converges when already applied, so the phase is safe to rerun.
// Nodes are prepared in parallel and a failing node does not stop the
// others; the failure is recorded with the node and step that failed.
package prepare
