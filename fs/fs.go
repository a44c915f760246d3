// Package fs provides file system helpers: reading and writing reports,
// discovering dataset scenarios and caching model responses on disk.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultCacheDir returns the default cache directory for autoeval.
// Uses XDG_CACHE_HOME if set, otherwise falls back to ~/.cache/autoeval,
// or system temp directory if home is unavailable.
func DefaultCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "autoeval")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "autoeval")
	}
	return filepath.Join(home, ".cache", "autoeval")
}

// ReadFile returns the contents of path as text.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteFile writes text to path, replacing any existing file. It fails
// without creating anything when the parent directory does not exist.
func WriteFile(path, text string) error {
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("parent directory of %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("parent of %s is not a directory", path)
	}
	return os.WriteFile(path, []byte(text), 0644)
}
