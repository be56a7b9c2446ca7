package gitx

import (
	"fmt"
)

const prefSection = "gitscope"

// PrefGet reads a key from the [gitscope] section of the repository's
// local config.
func (r *Repo) PrefGet(key string) (string, bool) {
	cfg, err := r.repo.Config()
	if err != nil {
		return "", false
	}
	sec := cfg.Raw.Section(prefSection)
	if !sec.HasOption(key) {
		return "", false
	}
	return sec.Option(key), true
}

// PrefSet writes a key into the [gitscope] section of the repository's
// local config.
func (r *Repo) PrefSet(key, value string) error {
	cfg, err := r.repo.Config()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg.Raw.Section(prefSection).SetOption(key, value)
	if err := r.repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("set config %s.%s: %w", prefSection, key, err)
	}
	return nil
}
