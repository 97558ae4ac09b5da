package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.bookmarks/logs/).
// Falls back to temp directory if home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".bookmarks", "logs")
	}
	return filepath.Join(home, ".bookmarks", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "bookmarks.log")
}

// EnsureLogDir creates the directory holding path if it doesn't exist.
func EnsureLogDir(path string) error {
	if path == "" {
		path = DefaultLogPath()
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
