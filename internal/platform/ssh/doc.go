// Package ssh implements the remote execution channel over SSH.
//
// A [Client] executes [remote.Command] values on one host, capturing stdout,
// stderr and the exit status separately. Connections are established
// lazily with retry, because a freshly booted server can accept TCP on
// port 22 before cloud-init has installed the authorized key, and are
// reused for every subsequent command. A [Connector] hands out one Client
// per node and closes them all at the end of a run.
//
// Security: host key verification is disabled by default for freshly
// created servers whose host keys cannot be known in advance. Configure
// HostKeyCallback for persistent infrastructure.
package ssh
