package shared

import (
	_ "embed"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig contains listener settings and per-connection limits.
//
// Timeouts of zero disable the corresponding deadline.
type ServerConfig struct {
	Host            string        `toml:"host"`
	Port            int           `toml:"port"`
	MaxConns        int           `toml:"max_conns"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	QueryTimeout    time.Duration `toml:"query_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	MaxRequestBytes int           `toml:"max_request_bytes"`
	StatusPort      int           `toml:"status_port"`
}

// DatabaseConfig contains the connection settings for the records database.
//
// URL, when set, is passed to the driver as-is (credentials are merged in for mysql and postgres).
// Otherwise sqlite3 uses Path and the network drivers use Host/Port/Name.
type DatabaseConfig struct {
	Driver       string `toml:"driver"`
	URL          string `toml:"url"`
	Path         string `toml:"path"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Name         string `toml:"name"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	MaxOpenConns int    `toml:"max_open_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Addr returns the host:port the listener binds to.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.StatusPort < 0 || c.Server.StatusPort > 65535 {
		return fmt.Errorf("%w: status port %d out of range", ErrInvalidConfig, c.Server.StatusPort)
	}
	if c.Server.MaxConns < 0 {
		return fmt.Errorf("%w: max_conns must not be negative", ErrInvalidConfig)
	}
	if c.Server.MaxRequestBytes < 0 {
		return fmt.Errorf("%w: max_request_bytes must not be negative", ErrInvalidConfig)
	}
	if c.Server.ReadTimeout < 0 || c.Server.QueryTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	if _, err := DialectFor(c.Database.Driver); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Database.MaxOpenConns < 0 {
		return fmt.Errorf("%w: max_open_conns must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
