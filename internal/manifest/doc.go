// Package manifest downloads Kubernetes manifests over HTTPS and checks that
// every document is a well-formed object before it is shipped to a node.
package manifest
