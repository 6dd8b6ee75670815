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

	"github.com/jeranaias/agentview/internal/letta"
	"github.com/jeranaias/agentview/internal/model"
	"github.com/jeranaias/agentview/internal/transcript"
	"github.com/jeranaias/agentview/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete agentview configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Agent server connection
	Server ServerConfig `toml:"server" json:"server"`

	// Streaming send options
	Stream StreamConfig `toml:"stream" json:"stream"`

	// History loading
	History HistoryConfig `toml:"history" json:"history"`

	// Transcript display
	Display DisplayConfig `toml:"display" json:"display"`

	// Raw stream capture
	Capture CaptureConfig `toml:"capture" json:"capture"`
}

// ServerConfig contains agent server connection settings.
type ServerConfig struct {
	BaseURL           string  `toml:"base_url" json:"base_url"`
	TimeoutSecs       int     `toml:"timeout_secs" json:"timeout_secs"`
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
	MaxRetries        int     `toml:"max_retries" json:"max_retries"`
}

// StreamConfig contains streaming send options.
type StreamConfig struct {
	StreamSteps  bool `toml:"stream_steps" json:"stream_steps"`
	StreamTokens bool `toml:"stream_tokens" json:"stream_tokens"`

	// DeliveryCall is the tool call whose argument DeliveryArg is the text
	// shown to the user.
	DeliveryCall string `toml:"delivery_call" json:"delivery_call"`
	DeliveryArg  string `toml:"delivery_arg" json:"delivery_arg"`

	// Mode is "incremental" or "cumulative".
	Mode string `toml:"mode" json:"mode"`
}

// HistoryConfig contains history loading settings.
type HistoryConfig struct {
	PageSize int `toml:"page_size" json:"page_size"`
}

// DisplayConfig contains transcript display settings.
type DisplayConfig struct {
	ShowReasoning    bool `toml:"show_reasoning" json:"show_reasoning"`
	ShowToolActivity bool `toml:"show_tool_activity" json:"show_tool_activity"`
	Markdown         bool `toml:"markdown" json:"markdown"`
}

// CaptureConfig contains raw stream capture settings.
type CaptureConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Path    string `toml:"path" json:"path"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			BaseURL:           "http://localhost:8283",
			TimeoutSecs:       30,
			RequestsPerSecond: 10,
			MaxRetries:        3,
		},
		Stream: StreamConfig{
			StreamSteps:  true,
			StreamTokens: true,
			DeliveryCall: model.DefaultDelivery.Call,
			DeliveryArg:  model.DefaultDelivery.Arg,
			Mode:         "incremental",
		},
		History: HistoryConfig{
			PageSize: model.HistoryPageSize,
		},
		Display: DisplayConfig{
			ShowReasoning:    true,
			ShowToolActivity: true,
			Markdown:         true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the agentview configuration directory path.
// AGENTVIEW_HOME overrides the default ~/.agentview.
func ConfigDir() (string, error) {
	if dir := os.Getenv("AGENTVIEW_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".agentview"), nil
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

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last. When a file exists but cannot be
// read, the defaults are returned together with the load error.
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
		if err == nil {
			return cfg, nil
		}
		loadErr = err
		break
	}

	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Keys missing from the file keep their default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// finish applies env overrides, defaults and validation.
func (c *Config) finish() error {
	c.ApplyEnvOverrides()
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
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

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# agentview configuration file\n")
	buf.WriteString("# Generated by agentview - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

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
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.Server.BaseURL)
	switch {
	case err != nil:
		errs = append(errs, ValidationError{"server.base_url", fmt.Sprintf("invalid URL: %v", err)})
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, ValidationError{"server.base_url", "scheme must be http or https"})
	case u.Host == "":
		errs = append(errs, ValidationError{"server.base_url", "missing host"})
	}

	if c.Server.TimeoutSecs < 1 || c.Server.TimeoutSecs > 3600 {
		errs = append(errs, ValidationError{"server.timeout_secs", "must be between 1 and 3600"})
	}
	if c.Server.RequestsPerSecond <= 0 {
		errs = append(errs, ValidationError{"server.requests_per_second", "must be positive"})
	}
	if c.Server.MaxRetries < 0 || c.Server.MaxRetries > 10 {
		errs = append(errs, ValidationError{"server.max_retries", "must be between 0 and 10"})
	}

	if strings.TrimSpace(c.Stream.DeliveryCall) == "" {
		errs = append(errs, ValidationError{"stream.delivery_call", "must not be empty"})
	}
	if strings.TrimSpace(c.Stream.DeliveryArg) == "" {
		errs = append(errs, ValidationError{"stream.delivery_arg", "must not be empty"})
	}
	if c.Stream.Mode != "incremental" && c.Stream.Mode != "cumulative" {
		errs = append(errs, ValidationError{"stream.mode", "must be incremental or cumulative"})
	}

	if c.History.PageSize < 1 || c.History.PageSize > 10000 {
		errs = append(errs, ValidationError{"history.page_size", "must be between 1 and 10000"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for zero-value fields that have no
// meaningful zero.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = d.Server.BaseURL
	}
	c.Server.BaseURL = strings.TrimRight(c.Server.BaseURL, "/")
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = d.Server.TimeoutSecs
	}
	if c.Server.RequestsPerSecond == 0 {
		c.Server.RequestsPerSecond = d.Server.RequestsPerSecond
	}
	if c.Stream.DeliveryCall == "" {
		c.Stream.DeliveryCall = d.Stream.DeliveryCall
	}
	if c.Stream.DeliveryArg == "" {
		c.Stream.DeliveryArg = d.Stream.DeliveryArg
	}
	c.Stream.Mode = strings.ToLower(strings.TrimSpace(c.Stream.Mode))
	if c.Stream.Mode == "" {
		c.Stream.Mode = d.Stream.Mode
	}
	if c.History.PageSize == 0 {
		c.History.PageSize = d.History.PageSize
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - AGENTVIEW_URL: overrides server.base_url
//   - AGENTVIEW_PAGE_SIZE: overrides history.page_size
//   - AGENTVIEW_SHOW_REASONING: "1" or "true" to show internal reasoning
//   - AGENTVIEW_SHOW_TOOLS: "1" or "true" to show tool calls and results
//   - AGENTVIEW_CAPTURE: "1" or "true" to journal raw streams
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("AGENTVIEW_URL"); u != "" {
		c.Server.BaseURL = u
	}

	if size := os.Getenv("AGENTVIEW_PAGE_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil {
			c.History.PageSize = n
		}
	}

	if v := os.Getenv("AGENTVIEW_SHOW_REASONING"); v != "" {
		c.Display.ShowReasoning = parseBool(v)
	}
	if v := os.Getenv("AGENTVIEW_SHOW_TOOLS"); v != "" {
		c.Display.ShowToolActivity = parseBool(v)
	}
	if v := os.Getenv("AGENTVIEW_CAPTURE"); v != "" {
		c.Capture.Enabled = parseBool(v)
	}
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// Delivery returns the configured delivery call.
func (c *Config) Delivery() model.Delivery {
	return model.Delivery{Call: c.Stream.DeliveryCall, Arg: c.Stream.DeliveryArg}
}

// Preferences returns the configured display preferences.
func (c *Config) Preferences() transcript.Preferences {
	return transcript.Preferences{
		ShowReasoning:    c.Display.ShowReasoning,
		ShowToolActivity: c.Display.ShowToolActivity,
	}
}

// Timeout returns the request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutSecs) * time.Second
}

// ClientConfig returns the transport configuration.
func (c *Config) ClientConfig() *letta.ClientConfig {
	return &letta.ClientConfig{
		BaseURL:           c.Server.BaseURL,
		Timeout:           c.Timeout(),
		MaxRetries:        c.Server.MaxRetries,
		RequestsPerSecond: c.Server.RequestsPerSecond,
		StreamSteps:       c.Stream.StreamSteps,
		StreamTokens:      c.Stream.StreamTokens,
	}
}

// CapturePath returns the capture database path.
func (c *Config) CapturePath() (string, error) {
	if c.Capture.Path != "" {
		return c.Capture.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "captures.db"), nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value by its TOML key (e.g., "server.base_url").
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value from its string form (e.g., "display.markdown", "false").
// The result is not validated; call Validate before saving.
func (c *Config) Set(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", key, value)
		}
		field.SetInt(int64(n))
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid number %q", key, value)
		}
		field.SetFloat(f)
	case reflect.Bool:
		field.SetBool(parseBool(value))
	default:
		return fmt.Errorf("%s: unsupported type %s", key, field.Type())
	}
	return nil
}

// lookup walks the struct tree by TOML tag names.
func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	if key == "" || len(parts) == 0 {
		return reflect.Value{}, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown key: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("%s is a section, not a key", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("%s is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("toml"), ",")[0]
		if tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// Keys returns all configuration keys in dot notation.
func Keys() []string {
	var keys []string
	var walk func(prefix string, t reflect.Type)
	walk = func(prefix string, t reflect.Type) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			tag := strings.Split(f.Tag.Get("toml"), ",")[0]
			if tag == "" {
				continue
			}
			if f.Type.Kind() == reflect.Struct {
				walk(prefix+tag+".", f.Type)
				continue
			}
			keys = append(keys, prefix+tag)
		}
	}
	walk("", reflect.TypeOf(Config{}))
	return keys
}

// String returns the configuration as TOML.
func (c *Config) String() string {
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}
