// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/nyawara2025/dubaibankcases/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete socdash configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Backend (webhook service) configuration
	Backend BackendConfig `toml:"backend" json:"backend"`

	// Persisted session configuration
	Session SessionConfig `toml:"session" json:"session"`

	// Log file configuration
	Log LogConfig `toml:"log" json:"log"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// BackendConfig holds the remote service location and call limits.
type BackendConfig struct {
	// BaseURL is prefixed to every endpoint path.
	BaseURL string `toml:"base_url" json:"base_url"`

	Endpoints EndpointsConfig `toml:"endpoints" json:"endpoints"`

	// TimeoutSecs bounds every request. Expiry is reported as a network error.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// RateLimitPerSec caps outgoing requests. Zero disables limiting.
	RateLimitPerSec float64 `toml:"rate_limit_per_sec" json:"rate_limit_per_sec"`
	RateBurst       int     `toml:"rate_burst" json:"rate_burst"`
}

// EndpointsConfig holds the path of each backend operation.
type EndpointsConfig struct {
	Login     string `toml:"login" json:"login"`
	Incidents string `toml:"incidents" json:"incidents"`
	Report    string `toml:"report" json:"report"`
	Chat      string `toml:"chat" json:"chat"`
}

// SessionConfig selects where the token and user record are persisted.
type SessionConfig struct {
	// Store is one of "file", "sqlite", "memory".
	Store string `toml:"store" json:"store"`

	// Path overrides the store location. Empty means ~/.socdash/session.json
	// (file) or ~/.socdash/session.db (sqlite).
	Path string `toml:"path" json:"path"`

	// Watch enables logout detection when another process clears the store.
	Watch bool `toml:"watch" json:"watch"`
}

// LogConfig controls the rotating JSON log file.
type LogConfig struct {
	Level      string `toml:"level" json:"level"`
	File       string `toml:"file" json:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" json:"max_age_days"`
}

// UIConfig holds terminal UI preferences.
type UIConfig struct {
	// Theme is "dark", "light" or "auto".
	Theme string `toml:"theme" json:"theme"`

	// RefreshIntervalSecs schedules incident refetches. Zero disables.
	RefreshIntervalSecs int `toml:"refresh_interval_secs" json:"refresh_interval_secs"`

	// RenderMarkdown renders bank replies through glamour.
	RenderMarkdown bool `toml:"render_markdown" json:"render_markdown"`
}

// Session store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Backend: BackendConfig{
			BaseURL: "https://n8n.tenear.com/webhook",
			Endpoints: EndpointsConfig{
				Login:     "/bank/auth/login",
				Incidents: "/bank/incidents",
				Report:    "/bank/log-incident",
				Chat:      "/bank/chat",
			},
			TimeoutSecs:     10,
			RateLimitPerSec: 5,
			RateBurst:       10,
		},

		Session: SessionConfig{
			Store: StoreFile,
			Watch: true,
		},

		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},

		UI: UIConfig{
			Theme:               "dark",
			RefreshIntervalSecs: 30,
			RenderMarkdown:      true,
		},
	}
}

// Timeout returns the backend timeout as a duration.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the socdash configuration directory path.
// SOCDASH_HOME overrides the default ~/.socdash.
func ConfigDir() (string, error) {
	if dir := os.Getenv("SOCDASH_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".socdash"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// SessionPath resolves the location of the persisted session store.
func (c *Config) SessionPath() (string, error) {
	if c.Session.Path != "" {
		return c.Session.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if c.Session.Store == StoreSQLite {
		return filepath.Join(dir, "session.db"), nil
	}
	return filepath.Join(dir, "session.json"), nil
}

// LogPath resolves the log file location.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "socdash.log"), nil
}

// ensureSecurePermissions tightens config files to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
//
// When a file exists but cannot be decoded, the defaults are returned together
// with the decode error so callers can warn and continue.
func Load() (*Config, error) {
	var loadErr error

	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err != nil {
			loadErr = err
			break
		}
		return cfg, nil
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, loadErr
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadJSON loads configuration from a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
// Booleans cannot be told apart from an explicit false and are left alone.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Backend
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = defaults.Backend.BaseURL
	}
	if cfg.Backend.Endpoints.Login == "" {
		cfg.Backend.Endpoints.Login = defaults.Backend.Endpoints.Login
	}
	if cfg.Backend.Endpoints.Incidents == "" {
		cfg.Backend.Endpoints.Incidents = defaults.Backend.Endpoints.Incidents
	}
	if cfg.Backend.Endpoints.Report == "" {
		cfg.Backend.Endpoints.Report = defaults.Backend.Endpoints.Report
	}
	if cfg.Backend.Endpoints.Chat == "" {
		cfg.Backend.Endpoints.Chat = defaults.Backend.Endpoints.Chat
	}
	if cfg.Backend.TimeoutSecs == 0 {
		cfg.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}
	if cfg.Backend.RateBurst == 0 {
		cfg.Backend.RateBurst = defaults.Backend.RateBurst
	}

	// Session
	if cfg.Session.Store == "" {
		cfg.Session.Store = defaults.Session.Store
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = defaults.Log.MaxSizeMB
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = defaults.Log.MaxBackups
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = defaults.Log.MaxAgeDays
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with mode 0600.
func SaveTOML(cfg *Config, path string) error {
	var buf strings.Builder
	buf.WriteString("# socdash configuration file\n")
	buf.WriteString("# Generated by socdash - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file with mode 0600.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Backend
	if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "backend.base_url",
			Message: fmt.Sprintf("invalid URL '%s', must be absolute (http or https)", c.Backend.BaseURL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "backend.base_url",
			Message: fmt.Sprintf("unsupported scheme '%s', must be http or https", u.Scheme),
		})
	}

	endpoints := map[string]string{
		"backend.endpoints.login":     c.Backend.Endpoints.Login,
		"backend.endpoints.incidents": c.Backend.Endpoints.Incidents,
		"backend.endpoints.report":    c.Backend.Endpoints.Report,
		"backend.endpoints.chat":      c.Backend.Endpoints.Chat,
	}
	for _, field := range []string{
		"backend.endpoints.login",
		"backend.endpoints.incidents",
		"backend.endpoints.report",
		"backend.endpoints.chat",
	} {
		if !strings.HasPrefix(endpoints[field], "/") {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("path '%s' must start with '/'", endpoints[field]),
			})
		}
	}

	if c.Backend.TimeoutSecs < 1 || c.Backend.TimeoutSecs > 300 {
		errs = append(errs, ValidationError{
			Field:   "backend.timeout_secs",
			Message: fmt.Sprintf("timeout %d out of range, must be between 1 and 300", c.Backend.TimeoutSecs),
		})
	}
	if c.Backend.RateLimitPerSec < 0 {
		errs = append(errs, ValidationError{
			Field:   "backend.rate_limit_per_sec",
			Message: "must not be negative",
		})
	}
	if c.Backend.RateBurst < 1 {
		errs = append(errs, ValidationError{
			Field:   "backend.rate_burst",
			Message: "must be at least 1",
		})
	}

	// Session
	switch c.Session.Store {
	case StoreFile, StoreSQLite, StoreMemory:
	default:
		errs = append(errs, ValidationError{
			Field:   "session.store",
			Message: fmt.Sprintf("invalid store '%s', must be one of: file, sqlite, memory", c.Session.Store),
		})
	}

	// Log
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}
	if c.Log.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{Field: "log.max_size_mb", Message: "must be at least 1"})
	}
	if c.Log.MaxBackups < 0 {
		errs = append(errs, ValidationError{Field: "log.max_backups", Message: "must not be negative"})
	}
	if c.Log.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{Field: "log.max_age_days", Message: "must not be negative"})
	}

	// UI
	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}
	if c.UI.RefreshIntervalSecs < 0 {
		errs = append(errs, ValidationError{Field: "ui.refresh_interval_secs", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides:
//   - SOCDASH_BASE_URL: overrides backend.base_url
//   - SOCDASH_TIMEOUT: overrides backend.timeout_secs
//   - SOCDASH_SESSION_STORE: overrides session.store
//   - SOCDASH_LOG_LEVEL: overrides log.level
//   - SOCDASH_LOG_FILE: overrides log.file
func (c *Config) ApplyEnvOverrides() {
	if base := os.Getenv("SOCDASH_BASE_URL"); base != "" {
		c.Backend.BaseURL = strings.TrimRight(base, "/")
	}

	if timeout := os.Getenv("SOCDASH_TIMEOUT"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil {
			c.Backend.TimeoutSecs = secs
		}
	}

	if store := os.Getenv("SOCDASH_SESSION_STORE"); store != "" {
		c.Session.Store = strings.ToLower(store)
	}

	if level := os.Getenv("SOCDASH_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}

	if file := os.Getenv("SOCDASH_LOG_FILE"); file != "" {
		c.Log.File = file
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "backend.timeout_secs").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if field.Kind() == reflect.Struct {
		return fmt.Errorf("cannot set section: %s", key)
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup walks the struct tree matching each dotted part against toml tags.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i], "."))
		}
		idx := fieldIndexByTag(v.Type(), part)
		if idx < 0 {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		v = v.Field(idx)
	}
	return v, nil
}

func fieldIndexByTag(t reflect.Type, name string) int {
	name = strings.ReplaceAll(strings.ToLower(name), "-", "_")
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("toml"), ",")[0]
		if tag == name {
			return i
		}
	}
	return -1
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// Keys returns every settable configuration key in dot notation.
func Keys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			tag := strings.Split(t.Field(i).Tag.Get("toml"), ",")[0]
			if tag == "" || tag == "-" {
				continue
			}
			key := tag
			if prefix != "" {
				key = prefix + "." + tag
			}
			if t.Field(i).Type.Kind() == reflect.Struct {
				walk(t.Field(i).Type, key)
				continue
			}
			keys = append(keys, key)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// Clone creates a copy of the configuration. Config holds no maps or slices,
// so a value copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the configuration as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
