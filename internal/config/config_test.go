package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestLoadFillsDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timeout_ms: 5000
log:
  console:
    enabled: true
    format: console
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.TimeoutMs)
	assert.Equal(t, DefaultMaxRequests, cfg.MaxRequests)
	assert.Equal(t, DefaultMaxMessages, cfg.MaxMessages)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAMLFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout_ms: [not a number"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadInvalidConfigFailsValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout_ms: -1\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsNonPositiveFields(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"timeout", func(c *Config) { c.TimeoutMs = 0 }},
		{"max requests", func(c *Config) { c.MaxRequests = 0 }},
		{"max messages", func(c *Config) { c.MaxMessages = -1 }},
		{"log buffer cap", func(c *Config) { c.LogBufferCap = 0 }},
		{"async stack depth", func(c *Config) { c.AsyncStackTraceDepth = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateRequiresALogSink(t *testing.T) {
	cfg := Default()
	cfg.Log.Console.Enabled = false
	cfg.Log.File.Enabled = false
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresFilePathWhenFileEnabled(t *testing.T) {
	cfg := Default()
	cfg.Log.File.Enabled = true
	cfg.Log.File.Path = ""
	assert.Error(t, cfg.Validate())
}
