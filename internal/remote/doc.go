// Package remote defines the remote execution channel used by every stage
// that touches a node.
//
// Commands are argument lists, never pre-joined shell strings. [Render]
// turns a [Command] into a single shell-safe line for transports that only
// accept a string (SSH). Exit status is surfaced as [*ExitError] so callers
// can distinguish "the command ran and failed" from transport failures.
//
// [ReadFile] and [WriteFile] build file transfer on top of [Executor.Run],
// so any executor gets remote-to-local and local-to-remote copies for free.
package remote
