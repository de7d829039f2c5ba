// Package config defines the cluster configuration consumed by the
// bootstrap pipeline.
//
// The [Config] struct is the canonical description of a run: provider
// credentials, the static list of [NodeSpec] values, the machine profile
// every server is created with, the pod network CIDR and the package
// version pins. It is loaded from YAML by [LoadFile], defaulted and
// validated before any provisioning starts.
package config
