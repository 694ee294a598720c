// Package config loads the session engine's YAML configuration: timeouts,
// projection caps, and the ambient logging block.
package config

import (
	"fmt"
	"os"

	"github.com/cdpsession/engine/internal/logging"
	"gopkg.in/yaml.v3"
)

// Config is the top-level session engine configuration.
type Config struct {
	// TimeoutMs bounds how long a single Transport request waits for a
	// response before failing with a Timeout error.
	TimeoutMs int `yaml:"timeout_ms"`

	// MaxRequests bounds NetworkState's in-memory request table.
	MaxRequests int `yaml:"max_requests"`

	// MaxMessages bounds ConsoleState's message/exception history.
	MaxMessages int `yaml:"max_messages"`

	// LogBufferCap bounds the Log.entryAdded buffer.
	LogBufferCap int `yaml:"log_buffer_cap"`

	// AsyncStackTraceDepth is mirrored to Debugger.setAsyncCallStackDepth
	// on session start.
	AsyncStackTraceDepth int `yaml:"async_stack_trace_depth"`

	Log logging.Config `yaml:"log"`
}

// Defaults mirror spec.md §6's stated defaults.
const (
	DefaultTimeoutMs            = 30000
	DefaultMaxRequests          = 1000
	DefaultMaxMessages          = 1000
	DefaultLogBufferCap         = 1000
	DefaultAsyncStackTraceDepth = 32
)

// Default returns a Config with every field set to its documented default.
func Default() Config {
	return Config{
		TimeoutMs:            DefaultTimeoutMs,
		MaxRequests:          DefaultMaxRequests,
		MaxMessages:          DefaultMaxMessages,
		LogBufferCap:         DefaultLogBufferCap,
		AsyncStackTraceDepth: DefaultAsyncStackTraceDepth,
		Log: logging.Config{
			Level:   logging.LevelInfo,
			Console: logging.ConsoleConfig{Enabled: true, Format: logging.FormatConsole},
		},
	}
}

// Load reads and parses a YAML config file over Default(), so fields absent
// from the file keep their defaults (a field set explicitly to zero stays
// zero), then validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: invalid configuration in %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks every field for a sane value, field by field, in the
// teacher's convention.
func (c Config) Validate() error {
	if c.TimeoutMs <= 0 {
		return fmt.Errorf("config: timeout_ms must be positive, got %d", c.TimeoutMs)
	}
	if c.MaxRequests <= 0 {
		return fmt.Errorf("config: max_requests must be positive, got %d", c.MaxRequests)
	}
	if c.MaxMessages <= 0 {
		return fmt.Errorf("config: max_messages must be positive, got %d", c.MaxMessages)
	}
	if c.LogBufferCap <= 0 {
		return fmt.Errorf("config: log_buffer_cap must be positive, got %d", c.LogBufferCap)
	}
	if c.AsyncStackTraceDepth < 0 {
		return fmt.Errorf("config: async_stack_trace_depth must not be negative, got %d", c.AsyncStackTraceDepth)
	}

	if !c.Log.Console.Enabled && !c.Log.File.Enabled {
		return fmt.Errorf("config: log.console or log.file must be enabled")
	}
	if c.Log.File.Enabled && c.Log.File.Path == "" {
		return fmt.Errorf("config: log.file.path must be set when log.file is enabled")
	}

	return nil
}
