package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Load reads the settings file, creating it with defaults on first launch,
// and applies environment overrides on top.
func Load() (*Config, error) {
	return LoadFromPath(GetSettingsFilePath())
}

// LoadFromPath reads a settings file from an explicit path. A missing file is
// not an error: defaults are written there and returned.
func LoadFromPath(settingsPath string) (*Config, error) {
	cfg := DefaultConfig()

	if !FileExists(settingsPath) {
		if err := writeConfig(settingsPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	if _, err := toml.DecodeFile(settingsPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultConfig().MaxToolRounds
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration back to the default settings path.
func Save(cfg *Config) error {
	return writeConfig(GetSettingsFilePath(), cfg)
}

func writeConfig(settingsPath string, cfg *Config) error {
	if err := EnsureDir(filepath.Dir(settingsPath)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// 0600 - config may reference local paths and provider endpoints
	if err := os.WriteFile(settingsPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
