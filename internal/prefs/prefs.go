// Package prefs persists UI preferences in the repository's local git
// config, under the [gitscope] section.
package prefs

import (
	"fmt"
	"strconv"
	"strings"
)

// Store is the key/value surface prefs needs; *gitx.Repo satisfies it.
type Store interface {
	PrefGet(key string) (value string, ok bool)
	PrefSet(key, value string) error
}

// Prefs represents persisted UI preferences. The *Set fields tell the
// UI whether a value was explicitly stored or should use its default.
type Prefs struct {
	SideBySide bool
	SideSet    bool
	Wrap       bool
	WrapSet    bool
	LeftWidth  int
	LeftSet    bool
}

const (
	keySideBySide = "sideBySide"
	keyWrap       = "wrap"
	keyLeftWidth  = "leftWidth"
)

// Load reads preferences from the store. Missing or malformed keys are
// simply unset.
func Load(s Store) Prefs {
	var p Prefs
	if v, ok := s.PrefGet(keySideBySide); ok {
		p.SideSet = true
		p.SideBySide = parseBool(v)
	}
	if v, ok := s.PrefGet(keyWrap); ok {
		p.WrapSet = true
		p.Wrap = parseBool(v)
	}
	if v, ok := s.PrefGet(keyLeftWidth); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			p.LeftSet = true
			p.LeftWidth = n
		}
	}
	return p
}

// SaveSideBySide persists the side-by-side toggle.
func SaveSideBySide(s Store, v bool) error {
	return s.PrefSet(keySideBySide, strconv.FormatBool(v))
}

// SaveWrap persists the wrap toggle.
func SaveWrap(s Store, v bool) error {
	return s.PrefSet(keyWrap, strconv.FormatBool(v))
}

// SaveLeftWidth persists the left column width.
func SaveLeftWidth(s Store, w int) error {
	if w <= 0 {
		return fmt.Errorf("invalid left width: %d", w)
	}
	return s.PrefSet(keyLeftWidth, strconv.Itoa(w))
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
