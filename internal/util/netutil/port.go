// Package netutil provides network utility functions for port checking and network operations.
package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// ErrTimeout is returned when a port did not accept a connection before the deadline.
var ErrTimeout = errors.New("timeout waiting for port")

// WaitOptions tunes the polling loop of WaitForPort.
type WaitOptions struct {
	// Interval between connection attempts. Default: 1s.
	Interval time.Duration
	// DialTimeout bounds a single attempt. Default: 2s.
	DialTimeout time.Duration
}

// WaitForPort waits for a TCP port to be open on the target host.
//
// A timeout <= 0 fails with ErrTimeout without attempting a connection.
// Otherwise the first attempt is made immediately, then one attempt per
// interval until a connection succeeds or the timeout elapses.
func WaitForPort(ctx context.Context, host string, port int, timeout time.Duration, opts WaitOptions) error {
	address := net.JoinHostPort(host, strconv.Itoa(port))
	if timeout <= 0 {
		return fmt.Errorf("%w %s: no time budget", ErrTimeout, address)
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 2 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := net.Dialer{Timeout: opts.DialTimeout}
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	var lastErr error
	for {
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w %s after %v: %v", ErrTimeout, address, timeout, lastErr)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
