package config

import (
	"os"
	"path/filepath"
)

// DefaultHomeDir returns $ORANSOK_HOME, or ~/.oransok, or a temp-dir fallback
// when the user home cannot be determined.
func DefaultHomeDir() string {
	if home := os.Getenv("ORANSOK_HOME"); home != "" {
		return home
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".oransok")
	}
	return filepath.Join(userHome, ".oransok")
}

// DefaultConfigPath returns the config file path for a given home directory.
func DefaultConfigPath(homeDir string) string {
	return filepath.Join(homeDir, "config.yaml")
}

// Masked returns a copy of cfg with secrets replaced, for display.
func Masked(cfg *Config) *Config {
	out := *cfg
	out.LLM.APIKey = mask(cfg.LLM.APIKey)
	out.Graph.Password = mask(cfg.Graph.Password)
	return &out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
