// Package prefs persists per-user dashboard state between runs: the chosen
// theme and the last controller that answered. The file lives at
// ~/.config/sprinkler/prefs.toml and is never required; an unreadable or
// corrupt file reads as defaults.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme string `toml:"theme"`
	// LastHost is the controller most recently connected to, used when no
	// host is configured.
	LastHost string `toml:"last_host,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/sprinkler/prefs.toml"
	defaultTheme     = "Meadow"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

func defaults() Prefs {
	return Prefs{Theme: defaultTheme}
}

func (p *Prefs) normalize() {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.LastHost = strings.TrimSpace(p.LastHost)
}

// Load reads preferences from path (empty means the default location).
// It does not fail: anything short of a valid file yields defaults.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return defaults(), nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return defaults(), nil
	}
	p := defaults()
	if err := toml.Unmarshal(data, &p); err != nil {
		return defaults(), nil
	}
	p.normalize()
	return p, nil
}

// Save writes p to path, creating directories as needed. The file is
// replaced atomically so a crash never leaves half a document behind.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	p.normalize()
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// Update loads the stored preferences, applies fn and saves the result.
// Nothing is written when fn reports no change.
func Update(path string, fn func(*Prefs) bool) error {
	p, _ := Load(path)
	if !fn(&p) {
		return nil
	}
	return Save(path, p)
}

// SetTheme records the dashboard theme, keeping the other preferences.
func SetTheme(path, theme string) error {
	return Update(path, func(p *Prefs) bool {
		if p.Theme == theme {
			return false
		}
		p.Theme = theme
		return true
	})
}

// RememberHost records host as LastHost, keeping the other preferences.
// A blank host or one already stored is a no-op.
func RememberHost(path, host string) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil
	}
	return Update(path, func(p *Prefs) bool {
		if p.LastHost == host {
			return false
		}
		p.LastHost = host
		return true
	})
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = defaultPrefsPath
	}
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, rest)
	}
	return filepath.Abs(path)
}
