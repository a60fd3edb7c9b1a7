package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvAPIURL      = "KEWEN_API_URL"
	EnvAccessToken = "KEWEN_ACCESS_TOKEN"
	EnvTokenSecret = "KEWEN_TOKEN_SECRET"
	EnvDBDriver    = "KEWEN_DB_DRIVER"
	EnvDBDSN       = "KEWEN_DB_DSN"
	EnvCount       = "KEWEN_COUNT"
)

// LoadDotEnv loads .env from the working directory and then from the config
// directory. Variables already set are kept. Missing files are ignored.
func LoadDotEnv() error {
	for _, path := range []string{".env", filepath.Join(ConfigDir(), ".env")} {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment variables on a file config.
func ApplyEnv(cfg *FileConfig) error {
	if v, ok := lookup(EnvAPIURL); ok {
		cfg.API.URL = &v
	}
	if v, ok := lookup(EnvAccessToken); ok {
		cfg.API.Token = &v
	}
	if v, ok := lookup(EnvTokenSecret); ok {
		cfg.API.TokenSecret = &v
	}
	if v, ok := lookup(EnvDBDriver); ok {
		cfg.Store.Driver = &v
	}
	if v, ok := lookup(EnvDBDSN); ok {
		cfg.Store.DSN = &v
	}
	if v, ok := lookup(EnvCount); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvCount, err)
		}
		cfg.Practice.Count = &n
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
