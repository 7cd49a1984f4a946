// Package prefs handles shopdeck user preferences persistence.
// Preferences are stored in ~/.config/shopdeck/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences for the console.
type Prefs struct {
	Theme string `toml:"theme"`
	// LastLocation is the address the console reopens when started without one.
	LastLocation string `toml:"last_location"`
	// PageSizes maps a list path (e.g. "/orders") to the preferred page size,
	// used when the address does not carry one.
	PageSizes map[string]int `toml:"page_sizes"`
}

const (
	defaultPrefsPath = "~/.config/shopdeck/prefs.toml"
	defaultTheme     = "Nightfox"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Defaults returns the preferences used when nothing is stored.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme}
}

// Load reads preferences from the given path, falling back to defaults if missing.
// Read and parse errors degrade to defaults; the returned error is informational.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Defaults(), err
	}

	prefs := Defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, fmt.Errorf("open prefs: %w", err) // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, fmt.Errorf("read prefs: %w", err) // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Defaults(), fmt.Errorf("parse prefs: %w", err) // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	for key, size := range prefs.PageSizes {
		if size <= 0 {
			delete(prefs.PageSizes, key)
		}
	}

	return prefs, nil
}

// PageSize returns the stored page size for a list path, or 0.
func (p Prefs) PageSize(listPath string) int {
	return p.PageSizes[listPath]
}

// WithPageSize returns a copy of p remembering size for listPath.
func (p Prefs) WithPageSize(listPath string, size int) Prefs {
	sizes := make(map[string]int, len(p.PageSizes)+1)
	for k, v := range p.PageSizes {
		sizes[k] = v
	}
	sizes[listPath] = size
	p.PageSizes = sizes
	return p
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
