package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// DefaultTimeoutSeconds bounds a session when --timeout is not given.
	DefaultTimeoutSeconds int `yaml:"default_timeout_seconds"`

	// WidthFraction and HeightFraction size the overlay relative to the
	// host terminal, as percentages.
	WidthFraction  int `yaml:"width_fraction"`
	HeightFraction int `yaml:"height_fraction"`

	// HistoryEnabled controls whether finished sessions are recorded.
	HistoryEnabled bool `yaml:"history_enabled"`
}

// Load reads the config from ~/.config/ptyshell/config.yaml.
// Returns defaults if the file doesn't exist.
func Load() (*Config, error) {
	cfg := defaults()

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, nil
	}

	path := filepath.Join(home, ".config", "ptyshell", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if cfg.DefaultTimeoutSeconds <= 0 {
		cfg.DefaultTimeoutSeconds = defaults().DefaultTimeoutSeconds
	}
	if cfg.WidthFraction <= 0 || cfg.WidthFraction > 100 {
		cfg.WidthFraction = defaults().WidthFraction
	}
	if cfg.HeightFraction <= 0 || cfg.HeightFraction > 100 {
		cfg.HeightFraction = defaults().HeightFraction
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		DefaultTimeoutSeconds: 120,
		WidthFraction:         90,
		HeightFraction:        80,
		HistoryEnabled:        true,
	}
}
