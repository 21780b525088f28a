// Package config loads patchwork settings from TOML or YAML files with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override key.
const EnvPrefix = "PATCHWORK_"

// ErrUnknownFormat is returned when a config file has an unsupported
// extension.
var ErrUnknownFormat = errors.New("config: unknown file format")

// ParseError wraps a decode failure with the offending path.
type ParseError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("config: parse %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Config holds the tunable settings of the patch engine.
type Config struct {
	// ContextLines is the number of rows of surrounding context included
	// above and below each edit group.
	ContextLines int `toml:"context_lines" yaml:"context_lines"`

	// Workers is the size of the background task pool.
	Workers int `toml:"workers" yaml:"workers"`

	// QueueSize is the task pool's pending queue capacity.
	QueueSize int `toml:"queue_size" yaml:"queue_size"`

	// MaxFileSize is the largest file the store will open, in bytes.
	MaxFileSize int64 `toml:"max_file_size" yaml:"max_file_size"`

	// WatchFiles enables reloading open buffers when they change on disk.
	WatchFiles bool `toml:"watch_files" yaml:"watch_files"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ContextLines: 5,
		Workers:      4,
		QueueSize:    256,
		MaxFileSize:  10 * 1024 * 1024,
		WatchFiles:   true,
	}
}

// Load reads the file at path on top of the defaults, then applies
// environment overrides. An empty path skips the file and loads defaults
// plus environment only.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := Decode(data, filepath.Ext(path), &cfg); err != nil {
			return cfg, &ParseError{Path: path, Err: err}
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode unmarshals data into cfg according to the file extension.
func Decode(data []byte, ext string, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

// Validate rejects settings that would misbehave at runtime.
func (c Config) Validate() error {
	if c.ContextLines < 0 {
		return fmt.Errorf("config: context_lines must be >= 0, got %d", c.ContextLines)
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be >= 1, got %d", c.Workers)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("config: queue_size must be >= 1, got %d", c.QueueSize)
	}
	if c.MaxFileSize < 1 {
		return fmt.Errorf("config: max_file_size must be >= 1, got %d", c.MaxFileSize)
	}
	return nil
}

// applyEnv overlays PATCHWORK_* environment variables onto the config.
// Malformed values are ignored in favor of what is already set.
func (c *Config) applyEnv() {
	if v, ok := envInt("CONTEXT_LINES"); ok {
		c.ContextLines = v
	}
	if v, ok := envInt("WORKERS"); ok {
		c.Workers = v
	}
	if v, ok := envInt("QUEUE_SIZE"); ok {
		c.QueueSize = v
	}
	if v, ok := envInt64("MAX_FILE_SIZE"); ok {
		c.MaxFileSize = v
	}
	if v, ok := envBool("WATCH_FILES"); ok {
		c.WatchFiles = v
	}
}

func envInt(key string) (int, bool) {
	s := os.Getenv(EnvPrefix + key)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envInt64(key string) (int64, bool) {
	s := os.Getenv(EnvPrefix + key)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envBool(key string) (bool, bool) {
	s := os.Getenv(EnvPrefix + key)
	if s == "" {
		return false, false
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, false
	}
	return v, true
}
