// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/tripplan-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete tripplan configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Backend is the planning service connection.
	Backend BackendConfig `toml:"backend" json:"backend"`

	// Stream controls frame handling and the typewriter.
	Stream StreamConfig `toml:"stream" json:"stream"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Log configuration
	Log LogConfig `toml:"log" json:"log"`

	// Metrics configuration
	Metrics MetricsConfig `toml:"metrics" json:"metrics"`

	// Export configuration
	Export ExportConfig `toml:"export" json:"export"`
}

// BackendConfig describes the planning service.
type BackendConfig struct {
	// BaseURL is the service root, e.g. http://localhost:8000
	BaseURL string `toml:"base_url" json:"base_url"`
	// ChatPath is the streaming chat endpoint.
	ChatPath string `toml:"chat_path" json:"chat_path"`
	// PlansPath is the plan collection; status updates go to {plans_path}/{id}/status.
	PlansPath string `toml:"plans_path" json:"plans_path"`
	// UserID and PlanID are sent with every chat turn.
	UserID string `toml:"user_id" json:"user_id"`
	PlanID string `toml:"plan_id" json:"plan_id"`
	// TimeoutSecs bounds non-streaming requests.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// StreamConfig controls how streamed answers are revealed.
type StreamConfig struct {
	// TypingIntervalMs is the delay between revealed characters.
	// Negative reveals text instantly.
	TypingIntervalMs int `toml:"typing_interval_ms" json:"typing_interval_ms"`
	// NoiseThreshold is the rune count below which fence-free fragments are held back.
	NoiseThreshold int `toml:"noise_threshold" json:"noise_threshold"`
	// MaxFrameBytes bounds a single SSE frame.
	MaxFrameBytes int `toml:"max_frame_bytes" json:"max_frame_bytes"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is "dark", "light" or "auto".
	Theme string `toml:"theme" json:"theme"`
	// GlamourStyle is the markdown style of the itinerary panel.
	GlamourStyle string `toml:"glamour_style" json:"glamour_style"`
	// ScrollThresholdLines: the transcript follows new output only when the
	// view is within this many lines of the bottom.
	ScrollThresholdLines int `toml:"scroll_threshold_lines" json:"scroll_threshold_lines"`
	// PanelWidthPercent is the share of the screen given to the itinerary panel.
	PanelWidthPercent int `toml:"panel_width_percent" json:"panel_width_percent"`
}

// LogConfig configures the log file.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level" json:"level"`
	// File is the log path (empty = ~/.tripplan/tripplan.log).
	File string `toml:"file" json:"file"`
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Addr    string `toml:"addr" json:"addr"`
}

// ExportConfig controls itinerary exports.
type ExportConfig struct {
	// Dir is where exported files are written.
	Dir string `toml:"dir" json:"dir"`
	// Format is md, json or html.
	Format string `toml:"format" json:"format"`
	// Open launches the exported file in the default application.
	Open bool `toml:"open" json:"open"`
}

// TypingInterval returns the typewriter pace as a duration.
func (c *Config) TypingInterval() time.Duration {
	if c.Stream.TypingIntervalMs < 0 {
		return -1
	}
	return time.Duration(c.Stream.TypingIntervalMs) * time.Millisecond
}

// Timeout returns the backend request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSecs) * time.Second
}

// =============================================================================
// DEFAULTS
// =============================================================================

// CurrentVersion is the config file format version.
const CurrentVersion = "1"

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Backend: BackendConfig{
			BaseURL:     "http://localhost:8000",
			ChatPath:    "/api/travel/chat/stream",
			PlansPath:   "/api/travel/plans",
			UserID:      "1",
			PlanID:      "",
			TimeoutSecs: 30,
		},
		Stream: StreamConfig{
			TypingIntervalMs: 50,
			NoiseThreshold:   4,
			MaxFrameBytes:    1 << 20,
		},
		UI: UIConfig{
			Theme:                "dark",
			GlamourStyle:         "dark",
			ScrollThresholdLines: 3,
			PanelWidthPercent:    40,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		Export: ExportConfig{
			Dir:    ".",
			Format: "md",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the tripplan configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".tripplan"), nil
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

// DefaultLogPath returns ~/.tripplan/tripplan.log.
func DefaultLogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tripplan.log"), nil
}

// ExistingPath returns the config file Load would read, or "" when only
// defaults are in use.
func ExistingPath() string {
	for _, fn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := fn()
		if err != nil {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	if path := ExistingPath(); path != "" {
		cfg, err := LoadFromPath(path)
		if err == nil {
			return cfg, nil
		}
		if errors.As(err, new(ValidateErrors)) {
			return nil, err
		}
		// Unreadable file: continue with defaults but report why.
		defaults, derr := finish(Default())
		if derr != nil {
			return nil, derr
		}
		return defaults, err
	}
	return finish(Default())
}

// LoadTOML loads configuration from a TOML file on top of cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadJSON loads configuration from a JSON file on top of cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full validation.
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

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := fillDefaults(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Backend
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = defaults.Backend.BaseURL
	}
	if cfg.Backend.ChatPath == "" {
		cfg.Backend.ChatPath = defaults.Backend.ChatPath
	}
	if cfg.Backend.PlansPath == "" {
		cfg.Backend.PlansPath = defaults.Backend.PlansPath
	}
	if cfg.Backend.UserID == "" {
		cfg.Backend.UserID = defaults.Backend.UserID
	}
	if cfg.Backend.TimeoutSecs == 0 {
		cfg.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}

	// Stream
	if cfg.Stream.TypingIntervalMs == 0 {
		cfg.Stream.TypingIntervalMs = defaults.Stream.TypingIntervalMs
	}
	if cfg.Stream.NoiseThreshold == 0 {
		cfg.Stream.NoiseThreshold = defaults.Stream.NoiseThreshold
	}
	if cfg.Stream.MaxFrameBytes == 0 {
		cfg.Stream.MaxFrameBytes = defaults.Stream.MaxFrameBytes
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.GlamourStyle == "" {
		cfg.UI.GlamourStyle = defaults.UI.GlamourStyle
	}
	if cfg.UI.ScrollThresholdLines == 0 {
		cfg.UI.ScrollThresholdLines = defaults.UI.ScrollThresholdLines
	}
	if cfg.UI.PanelWidthPercent == 0 {
		cfg.UI.PanelWidthPercent = defaults.UI.PanelWidthPercent
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}

	// Metrics
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = defaults.Metrics.Addr
	}

	// Export
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = defaults.Export.Dir
	}
	if cfg.Export.Format == "" {
		cfg.Export.Format = defaults.Export.Format
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

const fileHeader = `# tripplan configuration file
# Generated by tripplan - edit with care
#
# Environment overrides: TRIPPLAN_BASE_URL, TRIPPLAN_USER_ID, TRIPPLAN_PLAN_ID,
# TRIPPLAN_TYPING_MS, TRIPPLAN_LOG_LEVEL, TRIPPLAN_THEME

`

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
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
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validThemes        = []string{"dark", "light", "auto"}
	validGlamourStyles = []string{"auto", "dark", "light", "notty", "ascii", "dracula", "pink", "tokyo-night"}
	validLogLevels     = []string{"debug", "info", "warn", "error"}
	validExportFormats = []string{"md", "json", "html"}
)

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// ==========================================================================
	// Backend
	// ==========================================================================

	if u, err := url.Parse(c.Backend.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "backend.base_url",
			Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host[:port]", c.Backend.BaseURL),
		})
	}
	if !strings.HasPrefix(c.Backend.ChatPath, "/") {
		errs = append(errs, ValidationError{
			Field:   "backend.chat_path",
			Message: "must start with '/'",
		})
	}
	if !strings.HasPrefix(c.Backend.PlansPath, "/") {
		errs = append(errs, ValidationError{
			Field:   "backend.plans_path",
			Message: "must start with '/'",
		})
	}
	if strings.TrimSpace(c.Backend.UserID) == "" {
		errs = append(errs, ValidationError{
			Field:   "backend.user_id",
			Message: "must not be empty",
		})
	}
	if c.Backend.TimeoutSecs < 1 || c.Backend.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "backend.timeout_secs",
			Message: fmt.Sprintf("must be between 1 and 600, got %d", c.Backend.TimeoutSecs),
		})
	}

	// ==========================================================================
	// Stream
	// ==========================================================================

	if c.Stream.TypingIntervalMs > 1000 {
		errs = append(errs, ValidationError{
			Field:   "stream.typing_interval_ms",
			Message: fmt.Sprintf("must be at most 1000, got %d", c.Stream.TypingIntervalMs),
		})
	}
	if c.Stream.NoiseThreshold < 0 || c.Stream.NoiseThreshold > 64 {
		errs = append(errs, ValidationError{
			Field:   "stream.noise_threshold",
			Message: fmt.Sprintf("must be between 0 and 64, got %d", c.Stream.NoiseThreshold),
		})
	}
	if c.Stream.MaxFrameBytes < 1024 || c.Stream.MaxFrameBytes > 64<<20 {
		errs = append(errs, ValidationError{
			Field:   "stream.max_frame_bytes",
			Message: fmt.Sprintf("must be between 1024 and %d, got %d", 64<<20, c.Stream.MaxFrameBytes),
		})
	}

	// ==========================================================================
	// UI
	// ==========================================================================

	if !slices.Contains(validThemes, strings.ToLower(c.UI.Theme)) {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: %s", c.UI.Theme, strings.Join(validThemes, ", ")),
		})
	}
	if !slices.Contains(validGlamourStyles, strings.ToLower(c.UI.GlamourStyle)) {
		errs = append(errs, ValidationError{
			Field:   "ui.glamour_style",
			Message: fmt.Sprintf("invalid style '%s', must be one of: %s", c.UI.GlamourStyle, strings.Join(validGlamourStyles, ", ")),
		})
	}
	if c.UI.ScrollThresholdLines < 0 || c.UI.ScrollThresholdLines > 50 {
		errs = append(errs, ValidationError{
			Field:   "ui.scroll_threshold_lines",
			Message: fmt.Sprintf("must be between 0 and 50, got %d", c.UI.ScrollThresholdLines),
		})
	}
	if c.UI.PanelWidthPercent < 20 || c.UI.PanelWidthPercent > 80 {
		errs = append(errs, ValidationError{
			Field:   "ui.panel_width_percent",
			Message: fmt.Sprintf("must be between 20 and 80, got %d", c.UI.PanelWidthPercent),
		})
	}

	// ==========================================================================
	// Log / Metrics / Export
	// ==========================================================================

	if !slices.Contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: %s", c.Log.Level, strings.Join(validLogLevels, ", ")),
		})
	}
	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Addr) == "" {
		errs = append(errs, ValidationError{
			Field:   "metrics.addr",
			Message: "must be set when metrics are enabled",
		})
	}

	if !slices.Contains(validExportFormats, strings.ToLower(c.Export.Format)) {
		errs = append(errs, ValidationError{
			Field:   "export.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: %s", c.Export.Format, strings.Join(validExportFormats, ", ")),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - TRIPPLAN_BASE_URL: overrides backend.base_url
//   - TRIPPLAN_USER_ID: overrides backend.user_id
//   - TRIPPLAN_PLAN_ID: overrides backend.plan_id
//   - TRIPPLAN_TYPING_MS: overrides stream.typing_interval_ms
//   - TRIPPLAN_LOG_LEVEL: overrides log.level
//   - TRIPPLAN_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("TRIPPLAN_BASE_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("TRIPPLAN_USER_ID"); v != "" {
		c.Backend.UserID = v
	}
	if v := os.Getenv("TRIPPLAN_PLAN_ID"); v != "" {
		c.Backend.PlanID = v
	}
	if v := os.Getenv("TRIPPLAN_TYPING_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Stream.TypingIntervalMs = ms
		}
	}
	if v := os.Getenv("TRIPPLAN_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("TRIPPLAN_THEME"); v != "" {
		c.UI.Theme = strings.ToLower(v)
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "backend.plan_id").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "stream.typing_interval_ms").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("'%s' is a section, not a value", key)
			}
			return field, nil
		}

		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}

	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
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

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"backend.base_url",
		"backend.chat_path",
		"backend.plans_path",
		"backend.user_id",
		"backend.plan_id",
		"backend.timeout_secs",
		"stream.typing_interval_ms",
		"stream.noise_threshold",
		"stream.max_frame_bytes",
		"ui.theme",
		"ui.glamour_style",
		"ui.scroll_threshold_lines",
		"ui.panel_width_percent",
		"log.level",
		"log.file",
		"metrics.enabled",
		"metrics.addr",
		"export.dir",
		"export.format",
		"export.open",
	}
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as indented JSON for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
