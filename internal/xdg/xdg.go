package xdg

import (
	"os"
	"path/filepath"
)

const appName = "buslens"

// Dir returns the XDG directory for the application.
// It checks envVar first (e.g. XDG_CONFIG_HOME), falling back to ~/fallbackDot
// (e.g. .config). The result always has "/buslens" appended.
func Dir(envVar, fallbackDot string) (string, error) {
	if dir := os.Getenv(envVar); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallbackDot, appName), nil
}

// DataDir returns the XDG data directory for the application.
func DataDir() (string, error) {
	return Dir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}
