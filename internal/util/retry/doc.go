// Package retry provides exponential backoff retry logic for transient failures.
//
// [WithExponentialBackoff] retries an operation with configurable max
// attempts, initial delay and maximum delay. It backs Hetzner Cloud API
// calls, server address lookups and manifest downloads. Errors wrapped with
// [Fatal] stop the loop immediately.
package retry
