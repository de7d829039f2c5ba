// Package hcloud wraps the Hetzner Cloud API with the desired-state
// operations needed to provision cluster nodes.
//
// Every Ensure method follows the same shape, implemented once by the
// generic [EnsureOperation]: look the resource up by name, validate or
// converge it when it exists, create it otherwise and wait for the
// resulting actions. Running an Ensure twice with the same arguments is a
// no-op the second time, which makes a partially failed provisioning run
// safe to repeat.
//
// Transient API failures (locked resources, conflicts) are retried with
// exponential backoff; invalid input is marked fatal with retry.Fatal so it
// surfaces immediately.
package hcloud
