// Package pathutil resolves user-supplied paths for scripts and data files.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// expandTilde expands ~ to home directory.
// Returns the path unchanged if it doesn't start with ~/.
func expandTilde(path string) (string, error) {
	if path == "~" {
		return os.UserHomeDir()
	}
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand home dir: %w", err)
	}

	return filepath.Join(home, path[2:]), nil
}

// ResolvePath resolves a path with tilde expansion and relative path resolution.
// - ~/... paths are expanded to home directory
// - Absolute paths are returned as-is
// - Relative paths are resolved from baseDir
// - Empty paths are not allowed and return an error
func ResolvePath(path, baseDir string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		return expandTilde(path)
	}

	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}

	return filepath.Join(baseDir, path), nil
}

// Canonical resolves path against baseDir and returns an absolute path with
// symlinks evaluated, so two spellings of the same file compare equal.
// A path that does not exist is returned absolute but unevaluated, together
// with the stat error.
func Canonical(path, baseDir string) (string, error) {
	resolved, err := ResolvePath(path, baseDir)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}

	evaluated, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, err
	}
	return evaluated, nil
}
