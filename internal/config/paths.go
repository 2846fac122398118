package config

import (
	"os"
	"path/filepath"

	"github.com/dshills/replstorm/internal/config/loader"
)

// DefaultConfigDir returns the user configuration directory, honoring
// XDG_CONFIG_HOME.
func DefaultConfigDir() string {
	if dir := os.Getenv(loader.EnvConfigDir); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "replstorm")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".replstorm"
	}
	return filepath.Join(home, ".config", "replstorm")
}
