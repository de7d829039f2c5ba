// Package kubeadm builds kubeadm and kubectl invocations and parses their
// output: bootstrap tokens, node addresses and the discovery hash pinning
// the cluster CA.
package kubeadm
