// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

const appName = "kewen"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// ConfigDir returns the application config directory.
func ConfigDir() string {
	return filepath.Join(XDGConfigHome(), appName)
}

// DefaultDeckDir returns the directory holding chapter decks.
func DefaultDeckDir() string {
	return filepath.Join(ConfigDir(), "decks")
}

// DefaultDeckPath builds the default deck path for a book.
func DefaultDeckPath(book string) string {
	return filepath.Join(DefaultDeckDir(), book+".toml")
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appName, appName+".db")
}

// DefaultSessionPath returns where the in-progress session is saved.
func DefaultSessionPath() string {
	return filepath.Join(XDGDataHome(), appName, "session.json")
}

// DefaultLogPath returns the log file used while the TUI owns the terminal.
func DefaultLogPath() string {
	return filepath.Join(XDGDataHome(), appName, appName+".log")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}
