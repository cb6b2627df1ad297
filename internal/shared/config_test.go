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

		if config.Server.Addr() != "127.0.0.1:4444" {
			t.Errorf("expected listener 127.0.0.1:4444, got %s", config.Server.Addr())
		}
		if config.Server.MaxConns != 64 {
			t.Errorf("expected max_conns 64, got %d", config.Server.MaxConns)
		}
		if config.Server.ReadTimeout != 10*time.Second || config.Server.QueryTimeout != 5*time.Second {
			t.Errorf("unexpected timeouts %v / %v", config.Server.ReadTimeout, config.Server.QueryTimeout)
		}
		if config.Database.Driver != DriverSQLite || config.Database.Path != "./records.db" {
			t.Errorf("unexpected database config %+v", config.Database)
		}
		if config.Log.Level != "info" {
			t.Errorf("expected log level info, got %s", config.Log.Level)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

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

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[server]
host = "0.0.0.0"
port = 5555
read_timeout = "250ms"

[database]
driver = "postgres"
host = "db.internal"
name = "shops"
username = "reader"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Addr() != "0.0.0.0:5555" {
			t.Errorf("expected 0.0.0.0:5555, got %s", config.Server.Addr())
		}
		if config.Server.ReadTimeout != 250*time.Millisecond {
			t.Errorf("expected read timeout 250ms, got %v", config.Server.ReadTimeout)
		}
		if config.Server.WriteTimeout != 10*time.Second {
			t.Errorf("missing keys should keep defaults, got write timeout %v", config.Server.WriteTimeout)
		}
		if config.Database.Driver != DriverPostgres || config.Database.Username != "reader" {
			t.Errorf("unexpected database config %+v", config.Database)
		}
	})

	t.Run("LoadConfig errors", func(t *testing.T) {
		dir := t.TempDir()
		if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); err == nil {
			t.Error("expected error for missing file")
		}

		bad := filepath.Join(dir, "bad.toml")
		if err := os.WriteFile(bad, []byte("[server\nport = "), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(bad); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tt := []struct {
			name   string
			modify func(*Config)
		}{
			{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
			{"status port out of range", func(c *Config) { c.Server.StatusPort = -1 }},
			{"negative max_conns", func(c *Config) { c.Server.MaxConns = -1 }},
			{"negative request limit", func(c *Config) { c.Server.MaxRequestBytes = -5 }},
			{"negative timeout", func(c *Config) { c.Server.QueryTimeout = -time.Second }},
			{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
			{"negative max_open_conns", func(c *Config) { c.Database.MaxOpenConns = -1 }},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				config := DefaultConfig()
				tc.modify(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})
}
