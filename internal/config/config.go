// Package config provides configuration types for PharmaLedger.
//
// Configuration is file-based (pharmaledger.yaml) with environment overrides
// (PHARMALEDGER_*). Demo accounts and batches are never compiled into the
// core; in dev mode they are injected here, at the configuration layer.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration.
type Config struct {
	// Server configures the HTTP listener and logging.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Session configures where remembered sessions are stored.
	Session SessionConfig `yaml:"session" mapstructure:"session"`

	// Auth configures the authenticator collaborator.
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"`

	// Catalog configures the batch verifier collaborator.
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`

	// RateLimit configures login throttling.
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`

	// Telemetry configures tracing.
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`

	// DevMode enables debug logging and demo accounts/batches.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// HTTPAddr is the address to listen on. Default: "127.0.0.1:8080".
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"omitempty,hostname_port"`

	// LogLevel sets the minimum log level. DevMode forces "debug".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// AllowedOrigins lists browser origins allowed to call the API.
	// Empty allows same-origin and non-browser requests only.
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins" validate:"omitempty,dive,url"`
}

// SessionConfig configures the session record backend.
type SessionConfig struct {
	// Backend is "memory", "file" or "redis". Default: "file".
	Backend string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=memory file redis"`

	// Dir is the record directory for the file backend.
	// Default: ~/.pharmaledger/sessions.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// Key is the record key for single-user (CLI) use. Default: "userSession".
	Key string `yaml:"key" mapstructure:"key" validate:"omitempty,record_key"`

	// Redis configures the redis backend.
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db" validate:"min=0"`
}

// AuthConfig configures the authenticator.
type AuthConfig struct {
	// Mode is "directory" (accounts below) or "remote". Default: "directory".
	Mode string `yaml:"mode" mapstructure:"mode" validate:"omitempty,oneof=directory remote"`

	// Users are the accounts of the directory authenticator.
	Users []UserConfig `yaml:"users" mapstructure:"users" validate:"omitempty,dive"`

	// Remote configures the remote authenticator.
	Remote RemoteConfig `yaml:"remote" mapstructure:"remote"`
}

// UserConfig is one directory account.
type UserConfig struct {
	Email        string `yaml:"email" mapstructure:"email" validate:"required,email"`
	PasswordHash string `yaml:"password_hash" mapstructure:"password_hash" validate:"required,password_hash"`
	Role         string `yaml:"role" mapstructure:"role" validate:"required,oneof=admin manufacturer pharmacy"`
	Name         string `yaml:"name" mapstructure:"name"`
	Disabled     bool   `yaml:"disabled" mapstructure:"disabled"`
}

// RemoteConfig configures an HTTP collaborator.
type RemoteConfig struct {
	URL string `yaml:"url" mapstructure:"url" validate:"omitempty,url"`

	// Timeout is the per-request timeout (e.g. "10s").
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty,duration"`
}

// CatalogConfig configures the batch verifier.
type CatalogConfig struct {
	// Mode is "memory", "sql" or "remote". Default: "memory".
	Mode string `yaml:"mode" mapstructure:"mode" validate:"omitempty,oneof=memory sql remote"`

	// SeedFile is a YAML batch list loaded into the memory catalog.
	SeedFile string `yaml:"seed_file" mapstructure:"seed_file"`

	// Batches are registered in the memory catalog in addition to SeedFile.
	Batches []BatchConfig `yaml:"batches" mapstructure:"batches" validate:"omitempty,dive"`

	// SQL configures the sql catalog.
	SQL SQLConfig `yaml:"sql" mapstructure:"sql"`

	// Remote configures the remote registry.
	Remote RemoteConfig `yaml:"remote" mapstructure:"remote"`
}

// BatchConfig is one inline catalog entry.
type BatchConfig struct {
	ID           string `yaml:"id" mapstructure:"id" validate:"required"`
	Product      string `yaml:"product" mapstructure:"product" validate:"required"`
	Manufacturer string `yaml:"manufacturer" mapstructure:"manufacturer" validate:"required"`
}

// SQLConfig configures the SQL catalog.
type SQLConfig struct {
	// Driver is "sqlite" or "postgres". Default: "sqlite".
	Driver string `yaml:"driver" mapstructure:"driver" validate:"omitempty,oneof=sqlite postgres"`

	// DSN is the data source. Default: ~/.pharmaledger/catalog.db.
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

// RateLimitConfig configures login throttling.
type RateLimitConfig struct {
	// Enabled controls throttling. Default: true.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// LoginRate is the number of login attempts allowed per minute, per
	// client address and per email. Default: 5.
	LoginRate int `yaml:"login_rate" mapstructure:"login_rate" validate:"omitempty,min=1"`

	// CleanupInterval is how often idle limiter keys are swept. Default: "5m".
	CleanupInterval string `yaml:"cleanup_interval" mapstructure:"cleanup_interval" validate:"omitempty,duration"`

	// MaxTTL is how long an idle key is kept. Default: "1h".
	MaxTTL string `yaml:"max_ttl" mapstructure:"max_ttl" validate:"omitempty,duration"`
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	// StdoutTraces writes spans as JSON to stdout.
	StdoutTraces bool `yaml:"stdout_traces" mapstructure:"stdout_traces"`
}

// dataDir is the per-user state directory.
func dataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".pharmaledger")
	}
	return ".pharmaledger"
}

// SetDefaults applies default values for optional fields.
func (c *Config) SetDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "127.0.0.1:8080"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	if c.Session.Backend == "" {
		c.Session.Backend = "file"
	}
	if c.Session.Dir == "" {
		c.Session.Dir = filepath.Join(dataDir(), "sessions")
	}
	if c.Session.Key == "" {
		c.Session.Key = "userSession"
	}

	if c.Auth.Mode == "" {
		c.Auth.Mode = "directory"
	}
	if c.Auth.Remote.Timeout == "" {
		c.Auth.Remote.Timeout = "10s"
	}

	if c.Catalog.Mode == "" {
		c.Catalog.Mode = "memory"
	}
	if c.Catalog.SQL.Driver == "" {
		c.Catalog.SQL.Driver = "sqlite"
	}
	if c.Catalog.SQL.DSN == "" && c.Catalog.SQL.Driver == "sqlite" {
		c.Catalog.SQL.DSN = filepath.Join(dataDir(), "catalog.db")
	}
	if c.Catalog.Remote.Timeout == "" {
		c.Catalog.Remote.Timeout = "10s"
	}

	if !viper.IsSet("rate_limit.enabled") {
		c.RateLimit.Enabled = true
	}
	if c.RateLimit.LoginRate == 0 {
		c.RateLimit.LoginRate = 5
	}
	if c.RateLimit.CleanupInterval == "" {
		c.RateLimit.CleanupInterval = "5m"
	}
	if c.RateLimit.MaxTTL == "" {
		c.RateLimit.MaxTTL = "1h"
	}
}

// SetDevDefaults applies development defaults when DevMode is true:
// debug logging, the demo accounts, and the demo batches. Configured
// accounts and batches are never replaced. No-op when DevMode is false.
func (c *Config) SetDevDefaults() error {
	if !c.DevMode {
		return nil
	}

	c.Server.LogLevel = "debug"

	if len(c.Auth.Users) == 0 {
		users, err := devUsers()
		if err != nil {
			return err
		}
		c.Auth.Users = users
	}

	if len(c.Catalog.Batches) == 0 && c.Catalog.SeedFile == "" {
		c.Catalog.Batches = devBatches()
	}
	return nil
}

// Duration parses a duration field, returning fallback for empty or
// invalid values. Fields are validated before use, so fallback only
// applies to zero-value configs in tests and tools.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
