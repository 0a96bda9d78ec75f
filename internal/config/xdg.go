// Package config loads mathdrill settings and game presets.
package config

import (
	"os"
	"path/filepath"
)

const appName = "mathdrill"

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

// DefaultConfigDir returns the directory searched for config.toml.
func DefaultConfigDir() string {
	return filepath.Join(XDGConfigHome(), appName)
}

// DefaultPresetsPath returns the default presets file.
func DefaultPresetsPath() string {
	return filepath.Join(DefaultConfigDir(), "presets.toml")
}
