// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockbackend

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config is the stand-in service configuration.
type Config struct {
	Addr     string         `yaml:"addr"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`

	// Reply is the chat answer. "{user}" is replaced with the sender's name.
	// Empty sends {} so clients fall back to their default text.
	Reply string `yaml:"reply"`

	Users     []UserSeed     `yaml:"users"`
	Incidents []IncidentSeed `yaml:"incidents"`
}

// DatabaseConfig selects the incident and user store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`

	// Path is the sqlite file. ":memory:" keeps everything in memory.
	Path string `yaml:"path"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// AuthConfig controls token issuance.
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`

	// RequireToken rejects non-login requests without a valid bearer token.
	RequireToken bool `yaml:"require_token"`
}

// TokenTTL returns the token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// UserSeed is an account created at startup.
type UserSeed struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`

	// TOTPSecret, when set, makes a one-time code mandatory at login.
	TOTPSecret string `yaml:"totp_secret"`
}

// IncidentSeed is an incident present at startup.
type IncidentSeed struct {
	Title     string `yaml:"title"`
	Severity  string `yaml:"severity"`
	Status    string `yaml:"status"`
	CreatedAt string `yaml:"created_at"`
}

// DefaultConfig returns a sqlite-in-memory setup with one operator and one
// viewer.
func DefaultConfig() Config {
	return Config{
		Addr: ":8088",
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   ":memory:",
			Port:   3306,
			Name:   "socmock",
		},
		Auth: AuthConfig{
			JWTSecret:     "socmock-dev-secret",
			TokenTTLHours: 12,
			RequireToken:  true,
		},
		Reply: "Directive acknowledged, {user}. Command Center is on it.",
		Users: []UserSeed{
			{Username: "analyst", Password: "analyst", Name: "Analyst One", Role: "operator"},
			{Username: "observer", Password: "observer", Name: "Observer", Role: "viewer"},
		},
		Incidents: []IncidentSeed{
			{Title: "Credential stuffing on online banking", Severity: "Critical", Status: "Investigating"},
			{Title: "Suspicious SWIFT message volume", Severity: "High", Status: "Open"},
			{Title: "Phishing campaign targeting tellers", Severity: "Medium", Status: "Resolved"},
		},
	}
}

// LoadConfig reads YAML from path over DefaultConfig and applies
// SOCMOCK_* environment overrides. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	envOverride(&cfg.Addr, "SOCMOCK_ADDR")
	envOverride(&cfg.Database.Driver, "SOCMOCK_DB_DRIVER")
	envOverride(&cfg.Database.Path, "SOCMOCK_DB_PATH")
	envOverride(&cfg.Database.Host, "SOCMOCK_DB_HOST")
	envOverride(&cfg.Database.User, "SOCMOCK_DB_USER")
	envOverride(&cfg.Database.Password, "SOCMOCK_DB_PASS")
	envOverride(&cfg.Database.Name, "SOCMOCK_DB_NAME")
	envOverrideInt(&cfg.Database.Port, "SOCMOCK_DB_PORT")
	envOverride(&cfg.Auth.JWTSecret, "SOCMOCK_JWT_SECRET")

	return cfg, cfg.Validate()
}

// Validate checks the settings the server cannot run without.
func (c Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	case DriverMySQL:
		if c.Database.Host == "" {
			errs = append(errs, errors.New("database.host is required for mysql"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverMySQL, c.Database.Driver))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.TokenTTLHours <= 0 {
		errs = append(errs, errors.New("auth.token_ttl_hours must be positive"))
	}
	for i, u := range c.Users {
		if u.Username == "" || u.Password == "" {
			errs = append(errs, fmt.Errorf("users[%d]: username and password are required", i))
		}
	}
	return errors.Join(errs...)
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
