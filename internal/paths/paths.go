// Package paths resolves the daemon's on-disk layout under one state
// directory, ~/.wahasync by default.
package paths

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.wahasync.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".wahasync")
}

// ConfigPath returns the config file path under dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, "config.toml")
}

// ArchiveDBPath returns the archive database path under dir.
func ArchiveDBPath(dir string) string {
	return filepath.Join(dir, "archive.db")
}

// LockPath returns the instance lock file path under dir.
func LockPath(dir string) string {
	return filepath.Join(dir, "LOCK")
}

// LogDir returns the log directory under dir.
func LogDir(dir string) string {
	return filepath.Join(dir, "logs")
}

// LogPath returns the daemon log file path under dir.
func LogPath(dir string) string {
	return filepath.Join(LogDir(dir), "wahasyncd.log")
}

// EnsureDir creates the state directory tree with owner-only permissions.
func EnsureDir(dir string) error {
	for _, d := range []string{dir, LogDir(dir)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
