package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Practice.Book != nil || cfg.API.URL != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `[practice]
book = "hsk1"
chapter = "3"
kind = "matching"
count = 8
points-per-question = 5

[api]
url = "https://api.example.test"
validate-timeout-ms = 4000

[store]
driver = "postgres"
auto-migrate = true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Practice.Book == nil || *cfg.Practice.Book != "hsk1" {
		t.Fatalf("unexpected book: %v", cfg.Practice.Book)
	}
	if cfg.Practice.PointsPerQuestion == nil || *cfg.Practice.PointsPerQuestion != 5 {
		t.Fatalf("unexpected points: %v", cfg.Practice.PointsPerQuestion)
	}
	if cfg.API.ValidateTimeoutMs == nil || *cfg.API.ValidateTimeoutMs != 4000 {
		t.Fatalf("unexpected validate timeout: %v", cfg.API.ValidateTimeoutMs)
	}
	if cfg.Store.AutoMigrate == nil || !*cfg.Store.AutoMigrate {
		t.Fatalf("expected auto-migrate")
	}
	if cfg.API.Token != nil {
		t.Fatalf("expected token unset")
	}
}

func TestApplyEnvOverridesFile(t *testing.T) {
	url := "https://file.example.test"
	cfg := FileConfig{API: APIConfig{URL: &url}}
	t.Setenv(EnvAPIURL, "https://env.example.test")
	t.Setenv(EnvDBDSN, "postgres://localhost/kewen")
	t.Setenv(EnvCount, "12")
	t.Setenv(EnvAccessToken, "")

	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if *cfg.API.URL != "https://env.example.test" {
		t.Fatalf("expected env url, got %s", *cfg.API.URL)
	}
	if cfg.Store.DSN == nil || *cfg.Store.DSN != "postgres://localhost/kewen" {
		t.Fatalf("unexpected dsn: %v", cfg.Store.DSN)
	}
	if cfg.Practice.Count == nil || *cfg.Practice.Count != 12 {
		t.Fatalf("unexpected count: %v", cfg.Practice.Count)
	}
	if cfg.API.Token != nil {
		t.Fatalf("empty env must not override")
	}

	t.Setenv(EnvCount, "many")
	if err := ApplyEnv(&cfg); err == nil {
		t.Fatalf("expected error for invalid count")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("KEWEN_DB_DRIVER=sqlite\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv(EnvDBDriver, "")
	if err := os.Unsetenv(EnvDBDriver); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}

	if err := LoadDotEnv(); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv(EnvDBDriver); got != "sqlite" {
		t.Fatalf("expected sqlite from .env, got %q", got)
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "kewen", "config.toml") {
		t.Fatalf("unexpected config path: %s", got)
	}
	if got := DefaultDeckPath("hsk1"); got != filepath.Join("/cfg", "kewen", "decks", "hsk1.toml") {
		t.Fatalf("unexpected deck path: %s", got)
	}
	if got := DefaultSessionPath(); got != filepath.Join("/data", "kewen", "session.json") {
		t.Fatalf("unexpected session path: %s", got)
	}
}
