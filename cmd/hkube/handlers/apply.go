// Package handlers implements the business logic for CLI commands.
//
// Handlers are framework-agnostic and can be tested independently of the
// CLI framework. External collaborators are created through package-level
// factory variables that tests replace.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/imamik/hkube/internal/config"
	"github.com/imamik/hkube/internal/manifest"
	"github.com/imamik/hkube/internal/orchestration"
	"github.com/imamik/hkube/internal/platform/hcloud"
	"github.com/imamik/hkube/internal/platform/ssh"
	"github.com/imamik/hkube/internal/provisioning"
	"github.com/imamik/hkube/internal/remote"
	"github.com/imamik/hkube/internal/util/keygen"
)

// DefaultConfigFile is read when apply is called without --config.
const DefaultConfigFile = "hkube.yaml"

// ApplyOptions carries the apply command's flags.
type ApplyOptions struct {
	ConfigPath  string
	MetricsFile string
	Verbose     bool
	Out         io.Writer
}

// Runner runs the bootstrap workflow. Implemented by orchestration.Bootstrapper.
type Runner interface {
	Run(ctx context.Context) (*orchestration.Outcome, error)
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfigFile loads config from file.
	loadConfigFile = config.LoadFile

	// loadTimeouts reads timeout overrides from the environment.
	loadTimeouts = config.LoadTimeouts

	// loadOrGenerateKey reads the SSH private key, generating it when missing.
	loadOrGenerateKey = keygen.LoadOrGenerate

	// newLogger builds the zap-backed logr.Logger. Terminals get the console
	// encoder, everything else gets JSON lines.
	newLogger = func(verbose bool) logr.Logger {
		opts := zap.Options{
			Development: isInteractiveTTY(),
			Level:       zapcore.InfoLevel,
			DestWriter:  os.Stderr,
		}
		if verbose {
			opts.Level = zapcore.DebugLevel
		}
		return zap.New(zap.UseFlagOptions(&opts))
	}

	// newInfraClient creates a new Hetzner Cloud client.
	newInfraClient = func(token string, t *config.Timeouts) hcloud.Provider {
		return hcloud.NewRealClient(token, hcloud.WithTimeouts(t))
	}

	// newConnector creates the SSH connector used for every node.
	newConnector = func(user string, privateKey []byte) remote.Connector {
		return ssh.NewConnector(user, privateKey)
	}

	// newManifestSource creates the overlay manifest fetcher.
	newManifestSource = func(t *config.Timeouts) provisioning.ManifestSource {
		return manifest.NewFetcher(manifest.WithRetry(t.RetryMaxAttempts, t.RetryInitialDelay))
	}

	// newBootstrapper creates the bootstrap workflow.
	newBootstrapper = func(
		cfg *config.Config,
		infra hcloud.Provider,
		conn remote.Connector,
		manifests provisioning.ManifestSource,
		opts ...orchestration.Option,
	) Runner {
		return orchestration.NewBootstrapper(cfg, infra, conn, manifests, opts...)
	}

	// writeFile writes data to a file.
	writeFile = os.WriteFile
)

// Apply provisions the configured servers and bootstraps them into a cluster.
//
// The workflow:
//  1. Loads and validates the cluster configuration
//  2. Loads or generates the SSH key pair used for every node
//  3. Runs the bootstrap stages (compute, readiness, roles, prepare,
//     control plane, join)
//  4. Writes the admin kubeconfig and prints a per-node summary
//
// The summary is printed even when the run fails, so partially bootstrapped
// clusters show which nodes need attention.
func Apply(ctx context.Context, opts ApplyOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = DefaultConfigFile
	}

	cfg, err := loadConfigFile(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := newLogger(opts.Verbose).WithValues("cluster", cfg.ClusterName)
	observer := provisioning.NewLogrObserver(log)

	key, generated, err := loadOrGenerateKey(cfg.SSH.PrivateKeyPath, keygen.DefaultBits)
	if err != nil {
		return fmt.Errorf("failed to load SSH key: %w", err)
	}
	if generated {
		observer.Printf("Generated SSH key %s", cfg.SSH.PrivateKeyPath)
	}

	timeouts := loadTimeouts()
	metrics := provisioning.NewMetrics(cfg.ClusterName)

	conn := newConnector(cfg.SSH.User, key.PrivateKey)
	if c, ok := conn.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	runner := newBootstrapper(
		cfg,
		newInfraClient(cfg.HCloudToken, timeouts),
		conn,
		newManifestSource(timeouts),
		orchestration.WithObserver(observer),
		orchestration.WithMetrics(metrics),
		orchestration.WithTimeouts(timeouts),
		orchestration.WithPublicKey(string(key.PublicKey)),
	)

	outcome, runErr := runner.Run(ctx)
	if outcome != nil {
		if len(outcome.Kubeconfig) > 0 {
			if err := writeFile(cfg.KubeconfigPath, outcome.Kubeconfig, 0o600); err != nil {
				return fmt.Errorf("failed to write kubeconfig: %w", err)
			}
			observer.Printf("Kubeconfig written to %s", cfg.KubeconfigPath)
		}
		fmt.Fprint(opts.Out, outcome.Summary())
	}

	if opts.MetricsFile != "" {
		if err := metrics.WriteTextfile(opts.MetricsFile); err != nil {
			observer.Printf("Failed to write metrics file: %v", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("bootstrap failed: %w", runErr)
	}
	return nil
}

func isInteractiveTTY() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}
