// Package readiness implements the readiness waiter phase: it blocks until
// every provisioned node accepts TCP connections on its SSH port.
package readiness
