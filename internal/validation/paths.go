package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SanitizePath rejects obviously hostile paths and returns the cleaned
// absolute form. Used for the database, search index and upload locations
// before anything is created on disk.
func SanitizePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("path contains null byte")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	cleaned := filepath.Clean(path)
	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed")
	}

	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return abs, nil
}

// EnsureDataFile validates a file path and creates its parent directory.
func EnsureDataFile(path string) (string, error) {
	abs, err := SanitizePath(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("creating parent directory: %w", err)
	}
	return abs, nil
}

// EnsureDataDir validates a directory path and creates it.
func EnsureDataDir(path string) (string, error) {
	abs, err := SanitizePath(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}
	return abs, nil
}
