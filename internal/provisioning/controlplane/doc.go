// Package controlplane implements the control-plane initializer phase.
//
// The phase is a small state machine on the single control-plane node.
// A probe of the API server decides between Uninitialized and Running;
// kubeadm init runs only from Uninitialized and is never retried, since a
// partial init needs manual cleanup. Once Running, the admin kubeconfig is
// installed for the SSH user and exported to the caller, and the pod network
// overlay manifests are applied server-side.
package controlplane
