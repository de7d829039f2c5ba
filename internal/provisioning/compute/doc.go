// Package compute implements the node provisioner phase.
//
// It ensures the cluster-wide prerequisites (SSH key, private network and
// subnet, firewall) and then one server per declared node, in parallel.
// Every ensure is get-or-create: rerunning against existing resources
// converges them instead of duplicating. The phase publishes the
// provisioned nodes, with their external and internal addresses, to
// provisioning.State in declaration order.
package compute
