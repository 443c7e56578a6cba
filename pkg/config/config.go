// Package config loads the service configuration from YAML with
// environment variable expansion.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/focusmate/session-service/pkg/session"
)

// Config holds the complete service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Users    UsersConfig    `yaml:"users"`
	Tasks    TasksConfig    `yaml:"tasks"`
	Auth     AuthConfig     `yaml:"auth"`
	Session  SessionConfig  `yaml:"session"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures the database connection.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// UsersConfig configures the user service client.
type UsersConfig struct {
	BaseURL string `yaml:"base_url"`
}

// TasksConfig configures the task service client.
type TasksConfig struct {
	BaseURL string `yaml:"base_url"`
}

// AuthConfig configures actor authentication at the boundary.
type AuthConfig struct {
	// SigningKey is the base64-encoded HMAC key bearer tokens are signed
	// with. Required unless AllowAnonymous is set.
	SigningKey string `yaml:"signing_key"`

	// AllowAnonymous accepts an X-User-ID header in place of a bearer
	// token. Development only.
	AllowAnonymous bool `yaml:"allow_anonymous"`
}

// SessionConfig carries the session validation bands.
type SessionConfig struct {
	MaxAllowedParticipants int `yaml:"max_allowed_participants"`
	MinAllowedParticipants int `yaml:"min_allowed_participants"`

	WorkDurationMinutes Band `yaml:"work_duration_minutes"`
	ShortBreakMinutes   Band `yaml:"short_break_minutes"`
	LongBreakMinutes    Band `yaml:"long_break_minutes"`
}

// Band is an inclusive min/max range.
type Band struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Load reads configuration from a file.
// The path is expected to come from command line arguments, controlled by
// the administrator.
func Load(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by admin
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a configuration with every default applied, for running
// without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Session.MaxAllowedParticipants == 0 {
		cfg.Session.MaxAllowedParticipants = 10
	}
	if cfg.Session.MinAllowedParticipants == 0 {
		cfg.Session.MinAllowedParticipants = 1
	}
	if cfg.Session.WorkDurationMinutes == (Band{}) {
		cfg.Session.WorkDurationMinutes = Band{Min: 15, Max: 180}
	}
	if cfg.Session.ShortBreakMinutes == (Band{}) {
		cfg.Session.ShortBreakMinutes = Band{Min: 5, Max: 10}
	}
	if cfg.Session.LongBreakMinutes == (Band{}) {
		cfg.Session.LongBreakMinutes = Band{Min: 15, Max: 25}
	}
}

// Limits converts the session bands to the core's Limits.
func (c *Config) Limits() session.Limits {
	return session.Limits{
		MinParticipants:      c.Session.MinAllowedParticipants,
		MaxParticipants:      c.Session.MaxAllowedParticipants,
		MinWorkMinutes:       c.Session.WorkDurationMinutes.Min,
		MaxWorkMinutes:       c.Session.WorkDurationMinutes.Max,
		MinShortBreakMinutes: c.Session.ShortBreakMinutes.Min,
		MaxShortBreakMinutes: c.Session.ShortBreakMinutes.Max,
		MinLongBreakMinutes:  c.Session.LongBreakMinutes.Min,
		MaxLongBreakMinutes:  c.Session.LongBreakMinutes.Max,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.DSN == "" {
		errs = append(errs, "database.dsn is required")
	}
	if !c.Auth.AllowAnonymous && c.Auth.SigningKey == "" {
		errs = append(errs, "auth.signing_key is required unless auth.allow_anonymous is set")
	}
	for _, band := range []struct {
		name string
		b    Band
	}{
		{"session.work_duration_minutes", c.Session.WorkDurationMinutes},
		{"session.short_break_minutes", c.Session.ShortBreakMinutes},
		{"session.long_break_minutes", c.Session.LongBreakMinutes},
	} {
		if band.b.Min <= 0 || band.b.Max < band.b.Min {
			errs = append(errs, fmt.Sprintf("%s must be a positive range", band.name))
		}
	}
	if c.Session.MinAllowedParticipants < 1 ||
		c.Session.MaxAllowedParticipants < c.Session.MinAllowedParticipants {
		errs = append(errs, "session participant limits must be a positive range")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
