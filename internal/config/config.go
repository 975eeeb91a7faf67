// Package config provides configuration for the zenscan CLI and client.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
)

// Config holds all zenscan configuration
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	NATS      NATSConfig      `yaml:"nats"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// TransportConfig selects how envelopes reach the server
type TransportConfig struct {
	// Kind is "websocket" or "nats"
	Kind string `yaml:"kind"`
	// URL is the Zenith websocket endpoint
	URL string `yaml:"url"`
	// Timeout bounds each request
	Timeout time.Duration `yaml:"timeout"`
}

// NATSConfig configures the NATS relay transport
type NATSConfig struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix"`
}

// StoreConfig configures the local scan snapshot store
type StoreConfig struct {
	// Backend is "sqlite", "postgres" or "none"
	Backend        string `yaml:"backend"`
	SQLitePath     string `yaml:"sqlite_path"`
	SQLiteDriver   string `yaml:"sqlite_driver"`
	PostgresDSN    string `yaml:"postgres_dsn"`
	PostgresSchema string `yaml:"postgres_schema"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig: an empty Addr disables the metrics endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Transport: TransportConfig{
			Kind:    "websocket",
			URL:     "wss://zenith.example.com/scans",
			Timeout: 30 * time.Second,
		},
		NATS: NATSConfig{
			URL:    "nats://127.0.0.1:4222",
			Prefix: "zenscan",
		},
		Store: StoreConfig{
			Backend:        "sqlite",
			SQLitePath:     "zenscan.db",
			SQLiteDriver:   "sqlite",
			PostgresSchema: "zenscan",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Transport.Kind {
	case "websocket":
		if c.Transport.URL == "" {
			return configErr("transport.url is required for the websocket transport")
		}
	case "nats":
		if c.NATS.URL == "" {
			return configErr("nats.url is required for the nats transport")
		}
		if c.NATS.Prefix == "" {
			return configErr("nats.prefix is required for the nats transport")
		}
	default:
		return configErr(fmt.Sprintf("transport.kind must be websocket or nats, got %q", c.Transport.Kind))
	}
	if c.Transport.Timeout < 0 {
		return configErr("transport.timeout must not be negative")
	}

	switch c.Store.Backend {
	case "none":
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return configErr("store.sqlite_path is required for the sqlite store")
		}
		if c.Store.SQLiteDriver != "sqlite" && c.Store.SQLiteDriver != "sqlite3" {
			return configErr(fmt.Sprintf("store.sqlite_driver must be sqlite or sqlite3, got %q", c.Store.SQLiteDriver))
		}
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return configErr("store.postgres_dsn is required for the postgres store")
		}
	default:
		return configErr(fmt.Sprintf("store.backend must be sqlite, postgres or none, got %q", c.Store.Backend))
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return configErr(fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}
	return nil
}

func configErr(msg string) error { return zserrors.NewError(zserrors.ErrConfig, msg) }

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, configErr(fmt.Sprintf("log.level must be debug, info, warn or error, got %q", s))
}

// NewLogger builds the process logger described by c.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, zserrors.Wrap(zserrors.ErrConfig, "failed to parse config file "+path, err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Transport.Kind != "" {
		c.Transport.Kind = other.Transport.Kind
	}
	if other.Transport.URL != "" {
		c.Transport.URL = other.Transport.URL
	}
	if other.Transport.Timeout != 0 {
		c.Transport.Timeout = other.Transport.Timeout
	}

	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Prefix != "" {
		c.NATS.Prefix = other.NATS.Prefix
	}

	if other.Store.Backend != "" {
		c.Store.Backend = other.Store.Backend
	}
	if other.Store.SQLitePath != "" {
		c.Store.SQLitePath = other.Store.SQLitePath
	}
	if other.Store.SQLiteDriver != "" {
		c.Store.SQLiteDriver = other.Store.SQLiteDriver
	}
	if other.Store.PostgresDSN != "" {
		c.Store.PostgresDSN = other.Store.PostgresDSN
	}
	if other.Store.PostgresSchema != "" {
		c.Store.PostgresSchema = other.Store.PostgresSchema
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}

	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}
}
