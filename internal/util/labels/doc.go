// Package labels provides consistent labeling for Hetzner Cloud resources.
//
// All labels use the hkube.io domain prefix and follow a builder pattern
// for constructing label sets with cluster name, node role and machine
// profile flags. Roles recorded here are what the provider-side view of a
// cluster is grouped by.
package labels
