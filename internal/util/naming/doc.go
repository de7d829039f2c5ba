// Package naming provides consistent naming functions for Hetzner Cloud resources.
//
// Cluster-wide resources are named after the cluster; servers are named
// {cluster}-{node} so the declared node name stays recognisable in the
// Hetzner console while two clusters in one project cannot collide.
package naming
