package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interpretive-systems/gitscope/internal/engine"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, engine.DefaultConfig().DebounceWindow, cfg.DebounceWindow)
}

func TestLoad_OverridesAndBackfill(t *testing.T) {
	dir := t.TempDir()
	body := `
debounce_window: 100ms
force_poll: true
watch_ignores:
  - vendor/**
  - "*.tmp"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.DebounceWindow)
	assert.True(t, cfg.ForcePoll)
	assert.Equal(t, []string{"vendor/**", "*.tmp"}, cfg.WatchIgnores)

	// Unset keys keep the defaults.
	assert.Equal(t, Default().NetworkTimeout, cfg.NetworkTimeout)
	assert.Equal(t, Default().PollInterval, cfg.PollInterval)
}

func TestLoad_NegativeDurationsFallBack(t *testing.T) {
	dir := t.TempDir()
	body := "debounce_window: -5s\nprogress_interval: 0s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default().DebounceWindow, cfg.DebounceWindow)
	assert.Equal(t, Default().ProgressInterval, cfg.ProgressInterval)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not yaml"), 0o644))

	cfg, err := Load(dir)
	require.Error(t, err)
	// The caller still gets something usable.
	assert.Equal(t, Default(), cfg)
}

func TestEngineConversion(t *testing.T) {
	cfg := Config{
		DebounceWindow:   80 * time.Millisecond,
		NetworkTimeout:   5 * time.Second,
		ProgressInterval: 200 * time.Millisecond,
	}
	ec := cfg.Engine()
	assert.Equal(t, cfg.DebounceWindow, ec.DebounceWindow)
	assert.Equal(t, cfg.NetworkTimeout, ec.NetworkTimeout)
	assert.Equal(t, cfg.ProgressInterval, ec.ProgressInterval)
}
