// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	API      APIConfig      `toml:"api"`
	Store    StoreConfig    `toml:"store"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Book              *string `toml:"book"`
	Chapter           *string `toml:"chapter"`
	Kind              *string `toml:"kind"`
	Count             *int    `toml:"count"`
	PointsPerQuestion *int    `toml:"points-per-question"`
	Deck              *string `toml:"deck"`
}

// APIConfig maps the quiz service settings.
type APIConfig struct {
	URL               *string `toml:"url"`
	Token             *string `toml:"token"`
	TokenSecret       *string `toml:"token-secret"`
	TimeoutMs         *int    `toml:"timeout-ms"`
	ValidateTimeoutMs *int    `toml:"validate-timeout-ms"`
}

// StoreConfig maps the durable store settings.
type StoreConfig struct {
	Driver      *string `toml:"driver"`
	DSN         *string `toml:"dsn"`
	AutoMigrate *bool   `toml:"auto-migrate"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
