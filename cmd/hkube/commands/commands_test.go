package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "hkube", cmd.Use)

	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}
	for _, expected := range []string{"apply", "version"} {
		assert.True(t, subcommands[expected], "Expected subcommand %s not found", expected)
	}

	flag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
	assert.Equal(t, "false", flag.DefValue)
}

func TestApply_Flags(t *testing.T) {
	cmd := Apply()

	require.NotNil(t, cmd)
	assert.Equal(t, "apply", cmd.Use)
	assert.NotNil(t, cmd.RunE)

	config := cmd.Flags().Lookup("config")
	require.NotNil(t, config, "config flag should exist")
	assert.Equal(t, "c", config.Shorthand)
	assert.Equal(t, "hkube.yaml", config.DefValue)

	metrics := cmd.Flags().Lookup("metrics-file")
	require.NotNil(t, metrics)
	assert.Equal(t, "", metrics.DefValue)
}

func TestApply_MissingConfigFails(t *testing.T) {
	cmd := Root()
	cmd.SetArgs([]string{"apply", "-c", t.TempDir() + "/missing.yaml"})
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestVersion(t *testing.T) {
	origVersion, origCommit, origDate := version, commit, date
	t.Cleanup(func() {
		version, commit, date = origVersion, origCommit, origDate
	})

	SetVersionInfo("1.2.3", "abc123", "2024-01-01")

	var out bytes.Buffer
	cmd := Version()
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)

	assert.Equal(t, "hkube 1.2.3\n  commit: abc123\n  built:  2024-01-01\n", out.String())
}
