// Package config loads the optional .gitscope.yaml with the policy
// constants the engine exposes rather than hard-codes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/interpretive-systems/gitscope/internal/engine"
)

// FileName is looked up in the repository root.
const FileName = ".gitscope.yaml"

// Config is the on-disk schema. Durations use Go notation ("250ms",
// "30s"); zero values fall back to the engine defaults.
type Config struct {
	DebounceWindow   time.Duration `yaml:"debounce_window,omitempty"`
	NetworkTimeout   time.Duration `yaml:"network_timeout,omitempty"`
	ProgressInterval time.Duration `yaml:"progress_interval,omitempty"`
	PollInterval     time.Duration `yaml:"poll_interval,omitempty"`
	ForcePoll        bool          `yaml:"force_poll,omitempty"`
	WatchIgnores     []string      `yaml:"watch_ignores,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	e := engine.DefaultConfig()
	return Config{
		DebounceWindow:   e.DebounceWindow,
		NetworkTimeout:   e.NetworkTimeout,
		ProgressInterval: e.ProgressInterval,
		PollInterval:     2 * time.Second,
	}
}

// Load reads .gitscope.yaml from the repository root. A missing file
// is not an error; the defaults apply.
func Load(repoRoot string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(filepath.Join(repoRoot, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", FileName, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", FileName, err)
	}
	d := Default()
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = d.DebounceWindow
	}
	if cfg.NetworkTimeout <= 0 {
		cfg.NetworkTimeout = d.NetworkTimeout
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = d.ProgressInterval
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = d.PollInterval
	}
	return cfg, nil
}

// Engine converts the file schema to the engine's config.
func (c Config) Engine() engine.Config {
	return engine.Config{
		DebounceWindow:   c.DebounceWindow,
		NetworkTimeout:   c.NetworkTimeout,
		ProgressInterval: c.ProgressInterval,
	}
}
