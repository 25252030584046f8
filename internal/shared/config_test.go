package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Driver != DriverSQLite {
			t.Errorf("expected database driver sqlite3, got %s", config.Database.Driver)
		}

		if config.Database.Path != "./ytstream.db" {
			t.Errorf("expected database path ./ytstream.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3001 {
			t.Errorf("expected server port 3001, got %d", config.Server.Port)
		}

		if config.Session.TTL.Duration != 30*24*time.Hour {
			t.Errorf("expected session ttl of 30 days, got %v", config.Session.TTL)
		}

		if config.RateLimit.MaxRequests != 100 || config.RateLimit.Window.Duration != 15*time.Minute {
			t.Errorf("expected 100 requests per 15m, got %d per %v", config.RateLimit.MaxRequests, config.RateLimit.Window)
		}

		if config.Upstream.Timeout.Duration != 15*time.Second {
			t.Errorf("expected upstream timeout 15s, got %v", config.Upstream.Timeout)
		}

		if config.Credentials.YouTube.PlayerURL == "" {
			t.Error("expected default player URL")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20

[server]
port = 8080

[credentials.youtube]
api_key = "test_api_key"
headers_path = "/path/to/headers.sh"

[session]
secret = "s3cret"
ttl = "1h"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Credentials.YouTube.APIKey != "test_api_key" {
			t.Errorf("expected api key test_api_key, got %s", config.Credentials.YouTube.APIKey)
		}

		if config.Session.TTL.Duration != time.Hour {
			t.Errorf("expected session ttl 1h, got %v", config.Session.TTL)
		}

		if config.Database.Driver != DriverSQLite {
			t.Errorf("unset keys should keep defaults, got driver %q", config.Database.Driver)
		}
	})

	t.Run("LoadConfig Invalid Duration", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[session]\nttl = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected error for invalid duration")
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("YOUTUBE_API_KEY", "env-key")
		t.Setenv("GOOGLE_CLIENT_ID", "env-client")
		t.Setenv("JWT_SECRET", "env-secret")
		t.Setenv("DATABASE_URL", "postgres://u:p@localhost/yt?sslmode=disable")
		t.Setenv("PORT", "9090")
		t.Setenv("LOG_LEVEL", "debug")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Credentials.YouTube.APIKey != "env-key" {
			t.Errorf("expected api key from env, got %s", config.Credentials.YouTube.APIKey)
		}
		if config.Credentials.Google.ClientID != "env-client" {
			t.Errorf("expected client id from env, got %s", config.Credentials.Google.ClientID)
		}
		if config.Session.Secret != "env-secret" {
			t.Errorf("expected secret from env, got %s", config.Session.Secret)
		}
		if config.Database.Driver != DriverPostgres {
			t.Errorf("DATABASE_URL should switch driver to postgres, got %s", config.Database.Driver)
		}
		if config.Server.Port != 9090 {
			t.Errorf("expected port 9090, got %d", config.Server.Port)
		}
		if config.Log.Level != "debug" {
			t.Errorf("expected log level debug, got %s", config.Log.Level)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		config.Session.Secret = "secret"
		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}

		config.Database.Driver = "mysql"
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
