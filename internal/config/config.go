// Package config loads the server configuration.
//
// CONFIGURATION SOURCES (highest priority first):
//  1. Environment variables (e.g. SERVER_PORT=9090)
//  2. A YAML file, if CONFIG_PATH points at one (or ./config.yaml exists)
//  3. The env-default values in the struct tags below
//
// cleanenv reads all three in one pass, so every setting is documented
// exactly once: in the struct tag next to its field.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration for the devfolio server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds SQLite settings.
//
// Path may be ":memory:" for throwaway instances; anything else is a file
// whose parent directory is created on startup.
type DatabaseConfig struct {
	Path         string        `yaml:"path"          env:"DB_PATH"          env-default:"data/devfolio.db"`
	BusyTimeout  time.Duration `yaml:"busy_timeout"  env:"DB_BUSY_TIMEOUT"  env-default:"5s"`
	RetryMax     int           `yaml:"retry_max"     env:"DB_RETRY_MAX"     env-default:"3"`
	RetryInitial time.Duration `yaml:"retry_initial" env:"DB_RETRY_INITIAL" env-default:"50ms"`
}

// AuthConfig holds JWT and GitHub OAuth settings.
type AuthConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"           env:"JWT_SECRET"           env-required:"true"`
	TokenTTL           time.Duration `yaml:"token_ttl"            env:"AUTH_TOKEN_TTL"       env-default:"24h"`
	GitHubClientID     string        `yaml:"github_client_id"     env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string        `yaml:"github_client_secret" env:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string        `yaml:"github_callback_url"  env:"GITHUB_CALLBACK_URL"  env-default:"http://localhost:8080/auth/github/callback"`
	// OwnerOpenID is the external identity (e.g. "github:1234") that is
	// granted the admin role on login.
	OwnerOpenID  string `yaml:"owner_open_id" env:"OWNER_OPEN_ID"`
	SecureCookie bool   `yaml:"secure_cookie" env:"AUTH_SECURE_COOKIE" env-default:"false"`
}

// GitHubEnabled reports whether the OAuth login routes can be mounted.
func (a AuthConfig) GitHubEnabled() bool {
	return a.GitHubClientID != "" && a.GitHubClientSecret != ""
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
	// File enables a rotating log file in addition to stdout.
	File       string `yaml:"file"        env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB" env-default:"100"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS" env-default:"3"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS" env-default:"28"`
}

// Validate checks cross-field rules that struct tags cannot express.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database.path must not be empty")
	}
	if c.Database.RetryMax < 1 {
		return fmt.Errorf("database.retry_max must be >= 1 (got %d)", c.Database.RetryMax)
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("auth.jwt_secret must be at least 16 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if (c.Auth.GitHubClientID == "") != (c.Auth.GitHubClientSecret == "") {
		return errors.New("auth.github_client_id and auth.github_client_secret must be set together")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}

	return nil
}
