package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPrefix is the control socket file name prefix.
const DefaultPrefix = "orion"

// CacheDir returns the directory holding the control socket. Priority:
// 1) XDG_CACHE_HOME (if set)
// 2) ~/.cache
func CacheDir() (string, error) {
	if cacheDir := os.Getenv("XDG_CACHE_HOME"); cacheDir != "" {
		return cacheDir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".cache"), nil
}

// NormalizeDisplay makes sure a display name carries a screen suffix,
// so ":0" and ":0.0" map to the same socket.
func NormalizeDisplay(display string) string {
	colon := strings.LastIndex(display, ":")
	if colon < 0 {
		return display
	}
	if strings.Contains(display[colon:], ".") {
		return display
	}
	return display + ".0"
}

// SocketPath returns <cache-dir>/<prefix>.<display>. An empty display
// falls back to $DISPLAY.
func SocketPath(prefix, display string) (string, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if display == "" {
		display = os.Getenv("DISPLAY")
	}
	if display == "" {
		return "", fmt.Errorf("DISPLAY is not set")
	}

	cacheDir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, prefix+"."+NormalizeDisplay(display)), nil
}

// EnsureDir creates the parent directory of a socket path.
func EnsureDir(socketPath string) error {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0700); err != nil {
		return fmt.Errorf("failed to create socket dir: %w", err)
	}
	return nil
}
