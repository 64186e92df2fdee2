// Package config loads and validates backoffice configuration.
//
// Configuration is read from ~/.backoffice/config.yaml (or $BACKOFFICE_HOME),
// optionally overlaid by a project-local .backoffice/config.yaml, and finally
// overridden by BACKOFFICE_* environment variables. CLI flags are applied by
// the caller on top of the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file configuration.
const (
	EnvHome      = "BACKOFFICE_HOME"
	EnvLogLevel  = "BACKOFFICE_LOG_LEVEL"
	EnvLogFormat = "BACKOFFICE_LOG_FORMAT"
	EnvStore     = "BACKOFFICE_STORE"
	EnvItemDelay = "BACKOFFICE_ITEM_DELAY"
)

// Default values.
const (
	DefaultOutputFormat = "table"
	DefaultPageSize     = 50
	MaxPageSize         = 1000
	configFileName      = "config.yaml"
	storeFileName       = "scan_items.json"
	outputTypeFile      = "file"
)

// Validation errors.
var (
	ErrInvalidOutputFormat = errors.New("output format must be 'table' or 'json'")
	ErrInvalidPageSize     = errors.New("page size must be between 1 and 1000")
	ErrNegativeItemDelay   = errors.New("item delay cannot be negative")
)

// Config is the root configuration.
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Store   StoreConfig   `yaml:"store"`
	Batch   BatchConfig   `yaml:"batch"`
}

// OutputConfig controls list rendering.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	PageSize      int    `yaml:"page_size"`
}

// LoggingConfig controls the zerolog logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// StoreConfig locates the scan-item catalog.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

// BatchConfig controls bulk operations.
type BatchConfig struct {
	// ItemDelay is the pause between consecutive items, e.g. "250ms".
	ItemDelay Duration `yaml:"item_delay"`

	// StopOnError makes the CLI cancel a run at the first failed item.
	// By default every item is attempted.
	StopOnError bool `yaml:"stop_on_error"`
}

// Duration is a time.Duration that marshals to YAML as a Go duration string.
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Defaults returns a Config populated with built-in defaults only.
func Defaults() *Config {
	return &Config{
		Output: OutputConfig{
			DefaultFormat: DefaultOutputFormat,
			PageSize:      DefaultPageSize,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// New returns defaults merged with the global config file and environment overrides.
// A missing or unreadable config file leaves the defaults in place.
func New() *Config {
	cfg := Defaults()

	if dir, err := GetConfigDir(); err == nil {
		path := filepath.Join(dir, configFileName)
		if _, statErr := os.Stat(path); statErr == nil {
			_ = ShallowMergeYAML(cfg, path)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	cfg.fillDefaults()
	return cfg
}

// Load reads the config file at path on top of defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if err := ShallowMergeYAML(cfg, path); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv applies BACKOFFICE_* overrides using lookupEnv.
// Unparseable values are ignored.
func (c *Config) ApplyEnv(lookupEnv func(string) (string, bool)) {
	if v, ok := lookupEnv(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookupEnv(EnvLogFormat); ok && v != "" {
		c.Logging.Format = v
	}
	if v, ok := lookupEnv(EnvStore); ok && v != "" {
		c.Store.Path = v
	}
	if v, ok := lookupEnv(EnvItemDelay); ok && v != "" {
		if d, err := ParseDelay(v); err == nil {
			c.Batch.ItemDelay = Duration(d)
		}
	}
}

// fillDefaults restores defaults for fields left empty by a section overlay.
func (c *Config) fillDefaults() {
	if c.Output.DefaultFormat == "" {
		c.Output.DefaultFormat = DefaultOutputFormat
	}
	if c.Output.PageSize == 0 {
		c.Output.PageSize = DefaultPageSize
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// ParseDelay accepts a Go duration ("500ms") or a bare millisecond count ("500").
func ParseDelay(v string) (time.Duration, error) {
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Output.DefaultFormat) {
	case "table", "json":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidOutputFormat, c.Output.DefaultFormat)
	}
	if c.Output.PageSize < 1 || c.Output.PageSize > MaxPageSize {
		return fmt.Errorf("%w: got %d", ErrInvalidPageSize, c.Output.PageSize)
	}
	if c.Batch.ItemDelay < 0 {
		return ErrNegativeItemDelay
	}
	return nil
}

// StorePath returns the configured scan-item store path, defaulting to the config directory.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, storeFileName), nil
}

// Save writes the configuration as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// ConfigFilePath returns the path of the global config file.
//
//nolint:revive // ConfigFilePath reads better at call sites than FilePath.
func ConfigFilePath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}
