package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	ServerCreate      time.Duration // Timeout for a single server ensure operation
	ServerIP          time.Duration // Timeout for waiting for server address assignment
	Readiness         time.Duration // Deadline for a node's SSH port to accept connections
	PortPoll          time.Duration // Interval between readiness connection attempts
	DialTimeout       time.Duration // Timeout for a single TCP connection attempt
	ManifestFetch     time.Duration // Timeout for downloading one overlay manifest
	RetryMaxAttempts  int           // Maximum number of retry attempts
	RetryInitialDelay time.Duration // Initial delay between retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - HKUBE_TIMEOUT_SERVER_CREATE (default: 10m)
//   - HKUBE_TIMEOUT_SERVER_IP (default: 60s)
//   - HKUBE_TIMEOUT_READINESS (default: 90s)
//   - HKUBE_TIMEOUT_PORT_POLL (default: 2s)
//   - HKUBE_TIMEOUT_DIAL (default: 2s)
//   - HKUBE_TIMEOUT_MANIFEST_FETCH (default: 30s)
//   - HKUBE_RETRY_MAX_ATTEMPTS (default: 5)
//   - HKUBE_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		ServerCreate:      parseDuration("HKUBE_TIMEOUT_SERVER_CREATE", 10*time.Minute),
		ServerIP:          parseDuration("HKUBE_TIMEOUT_SERVER_IP", 60*time.Second),
		Readiness:         parseDuration("HKUBE_TIMEOUT_READINESS", 90*time.Second),
		PortPoll:          parseDuration("HKUBE_TIMEOUT_PORT_POLL", 2*time.Second),
		DialTimeout:       parseDuration("HKUBE_TIMEOUT_DIAL", 2*time.Second),
		ManifestFetch:     parseDuration("HKUBE_TIMEOUT_MANIFEST_FETCH", 30*time.Second),
		RetryMaxAttempts:  parseInt("HKUBE_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("HKUBE_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
