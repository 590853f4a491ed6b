package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nemanjakrstic/snitch/internal/app"
	"github.com/nemanjakrstic/snitch/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snitch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const baseConfig = `
gocd:
  url: https://gocd.example.com
delivery:
  channel: log
policy:
  defaultNotify: true
`

func TestLoadConfig_FlagsOverride(t *testing.T) {
	path := writeConfig(t, baseConfig)

	cfg, err := loadConfig(runConfig{ConfigPath: path, Addr: ":9999", LogLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_DryRunForcesLogChannel(t *testing.T) {
	path := writeConfig(t, "gocd:\n  url: https://gocd.example.com\n")

	cfg, err := loadConfig(runConfig{ConfigPath: path, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, config.ChannelLog, cfg.Delivery.Channel)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, "delivery:\n  channel: carrier-pigeon\n")
	_, err := loadConfig(runConfig{ConfigPath: path})
	require.Error(t, err)
}

func TestReloadPolicy(t *testing.T) {
	path := writeConfig(t, baseConfig)
	rc := runConfig{ConfigPath: path}
	cfg, err := loadConfig(rc)
	require.NoError(t, err)
	a, err := app.New(cfg, zap.NewNop(), app.Options{})
	require.NoError(t, err)
	assert.Empty(t, a.Policy.Rules())

	require.NoError(t, os.WriteFile(path, []byte(baseConfig+"  rules:\n    - pattern: \"nightly-*\"\n      notify: false\n"), 0o600))
	reloadPolicy(rc, a, zap.NewNop())
	require.Len(t, a.Policy.Rules(), 1)
	assert.Equal(t, "nightly-*", a.Policy.Rules()[0].Pattern)

	require.NoError(t, os.WriteFile(path, []byte("delivery:\n  channel: nope\n"), 0o600))
	reloadPolicy(rc, a, zap.NewNop())
	assert.Len(t, a.Policy.Rules(), 1, "failed reload keeps the current policy")
}

func TestSelfSignedHosts(t *testing.T) {
	assert.Nil(t, selfSignedHosts(runConfig{}))

	hosts := selfSignedHosts(runConfig{SelfSigned: true})
	require.GreaterOrEqual(t, len(hosts), 2)
	assert.Equal(t, []string{"localhost", "127.0.0.1"}, hosts[:2])
}
