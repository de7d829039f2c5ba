package netutil

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) (*net.TCPListener, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	return ln.(*net.TCPListener), ln.Addr().(*net.TCPAddr).Port
}

// closedPort returns a port that was just released and refuses connections.
func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestWaitForPort_Success(t *testing.T) {
	t.Parallel()
	_, port := listen(t)

	err := WaitForPort(context.Background(), "127.0.0.1", port, 2*time.Second, WaitOptions{})
	require.NoError(t, err)
}

func TestWaitForPort_Timeout(t *testing.T) {
	t.Parallel()
	port := closedPort(t)
	start := time.Now()

	err := WaitForPort(context.Background(), "127.0.0.1", port, 200*time.Millisecond,
		WaitOptions{Interval: 20 * time.Millisecond, DialTimeout: 50 * time.Millisecond})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWaitForPort_ZeroTimeoutFailsWithoutDialing(t *testing.T) {
	t.Parallel()
	ln, port := listen(t)
	accepted := make(chan struct{}, 1)
	go func() {
		if conn, err := ln.Accept(); err == nil {
			_ = conn.Close()
			accepted <- struct{}{}
		}
	}()

	err := WaitForPort(context.Background(), "127.0.0.1", port, 0, WaitOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	select {
	case <-accepted:
		t.Fatal("zero timeout must not attempt a connection")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWaitForPort_BecomesReady(t *testing.T) {
	t.Parallel()
	port := closedPort(t)

	go func() {
		time.Sleep(100 * time.Millisecond)
		ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err != nil {
			return
		}
		time.Sleep(2 * time.Second)
		_ = ln.Close()
	}()

	err := WaitForPort(context.Background(), "127.0.0.1", port, 3*time.Second,
		WaitOptions{Interval: 20 * time.Millisecond})
	require.NoError(t, err)
}

func TestWaitForPort_ContextCancelled(t *testing.T) {
	t.Parallel()
	port := closedPort(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitForPort(ctx, "127.0.0.1", port, time.Second, WaitOptions{})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
}
