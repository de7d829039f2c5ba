// Package keygen generates and persists RSA key pairs for SSH authentication.
//
// Keys are produced in PEM format (private) and OpenSSH authorized_keys
// format (public). [LoadOrGenerate] reuses an existing private key file so
// re-runs keep talking to servers created by an earlier run.
package keygen
