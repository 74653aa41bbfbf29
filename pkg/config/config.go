// Package config loads the dashboard configuration from YAML with
// environment expansion and defaults.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Session backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendSQLite = "sqlite"
)

// Config holds the complete dashboard configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SessionConfig configures session storage.
type SessionConfig struct {
	Backend         string        `yaml:"backend"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	CookieName      string        `yaml:"cookie_name"`
}

// AuthConfig configures API tokens and the optional bootstrap admin.
type AuthConfig struct {
	TokenSecret string          `yaml:"token_secret"`
	TokenTTL    time.Duration   `yaml:"token_ttl"`
	Bootstrap   BootstrapConfig `yaml:"bootstrap"`
}

// BootstrapConfig creates an initial admin account on startup when the
// named user does not exist yet.
type BootstrapConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Load reads configuration from a YAML file. An empty path yields the
// defaults. Environment overrides apply after the file is parsed.
// The path is expected to come from command line arguments, controlled
// by the administrator.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		// #nosec G304 -- path is from CLI args, controlled by admin
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		data = []byte(expandEnvVars(string(data)))

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// applyEnvOverrides applies GOVDASH_* environment variables on top of
// the file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GOVDASH_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("GOVDASH_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("GOVDASH_SESSION_BACKEND"); v != "" {
		cfg.Session.Backend = v
	}
	if v := os.Getenv("GOVDASH_TOKEN_SECRET"); v != "" {
		cfg.Auth.TokenSecret = v
	}
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "govdash.db"
	}
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = SessionBackendSQLite
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.Session.CleanupInterval == 0 {
		cfg.Session.CleanupInterval = time.Hour
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	switch c.Session.Backend {
	case SessionBackendMemory, SessionBackendSQLite:
	default:
		errs = append(errs, fmt.Sprintf("session.backend must be %q or %q",
			SessionBackendMemory, SessionBackendSQLite))
	}

	if c.Auth.Bootstrap.Username != "" && c.Auth.Bootstrap.Password == "" {
		errs = append(errs, "auth.bootstrap.password is required when a bootstrap user is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
