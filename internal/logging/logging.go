// Package logging wraps zap with runtime level switching and lumberjack
// file rotation, shared by every package in the engine.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"

	FormatJSON    = "json"
	FormatConsole = "console"
	FormatText    = "text"
)

// Config is the ambient logging configuration, loaded as part of
// internal/config's config.Config.
type Config struct {
	Level   string        `yaml:"level"`
	Console ConsoleConfig `yaml:"console"`
	File    FileConfig    `yaml:"file"`
}

type ConsoleConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"`
	Level   string `yaml:"level,omitempty"`
}

type FileConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Path     string         `yaml:"path"`
	Format   string         `yaml:"format"`
	Level    string         `yaml:"level,omitempty"`
	Rotation RotationConfig `yaml:"rotation"`
}

type RotationConfig struct {
	MaxSize    int  `yaml:"max_size"`
	MaxAge     int  `yaml:"max_age"`
	MaxBackups int  `yaml:"max_backups"`
	Compress   bool `yaml:"compress"`
}

// DynamicLogger wraps zap.Logger with the ability to switch levels at
// runtime, e.g. dropping to DEBUG while diagnosing a stuck evaluate race
// and switching back once done.
type DynamicLogger struct {
	*zap.Logger
	consoleLevel     *zap.AtomicLevel
	fileLevel        *zap.AtomicLevel
	configuredConfig Config
}

// SwitchToConfiguredLevel switches the logger back to the originally
// configured level.
func (dl *DynamicLogger) SwitchToConfiguredLevel() {
	globalLevel := parseLevel(dl.configuredConfig.Level)

	dl.Info("switching logger to configured level", zap.String("level", dl.configuredConfig.Level))

	if dl.consoleLevel != nil {
		dl.consoleLevel.SetLevel(resolveLevel(dl.configuredConfig.Console.Level, globalLevel))
	}
	if dl.fileLevel != nil {
		dl.fileLevel.SetLevel(resolveLevel(dl.configuredConfig.File.Level, globalLevel))
	}
}

// EnsureInfoLevelForShutdown guarantees shutdown-sequence logs are visible
// regardless of the currently configured level.
func (dl *DynamicLogger) EnsureInfoLevelForShutdown() {
	changed := false
	if dl.consoleLevel != nil && dl.consoleLevel.Level() > zap.InfoLevel {
		dl.consoleLevel.SetLevel(zap.InfoLevel)
		changed = true
	}
	if dl.fileLevel != nil && dl.fileLevel.Level() > zap.InfoLevel {
		dl.fileLevel.SetLevel(zap.InfoLevel)
		changed = true
	}
	if changed {
		dl.Info("switched to INFO level for shutdown visibility")
	}
}

// NewLogger builds a DynamicLogger from config.
func NewLogger(config Config) (*DynamicLogger, error) {
	globalLevel := parseLevel(config.Level)

	var cores []zapcore.Core
	var consoleLevel *zap.AtomicLevel
	var fileLevel *zap.AtomicLevel

	if config.Console.Enabled {
		level := zap.NewAtomicLevelAt(resolveLevel(config.Console.Level, globalLevel))
		consoleLevel = &level
		encoder := createEncoder(config.Console.Format)
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), consoleLevel))
	}

	if config.File.Enabled {
		if config.File.Path == "" {
			return nil, fmt.Errorf("logging: file.path must be specified when file logging is enabled")
		}
		level := zap.NewAtomicLevelAt(resolveLevel(config.File.Level, globalLevel))
		fileLevel = &level
		encoder := createEncoder(config.File.Format)
		writer := createFileWriter(config.File.Path, config.File.Rotation)
		cores = append(cores, zapcore.NewCore(encoder, writer, fileLevel))
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("logging: at least one output (console or file) must be enabled")
	}

	var core zapcore.Core
	if len(cores) == 1 {
		core = cores[0]
	} else {
		core = zapcore.NewTee(cores...)
	}

	return &DynamicLogger{
		Logger:           zap.New(core),
		consoleLevel:     consoleLevel,
		fileLevel:        fileLevel,
		configuredConfig: config,
	}, nil
}

// NewLoggerWithStartupOverride starts at INFO if the configured level is
// stricter than INFO, so early startup failures are never silently
// swallowed; call SwitchToConfiguredLevel once startup completes.
func NewLoggerWithStartupOverride(config Config) (*DynamicLogger, error) {
	configuredLevel := parseLevel(config.Level)
	if configuredLevel <= zap.InfoLevel {
		return NewLogger(config)
	}

	startup := config
	startup.Level = LevelInfo
	if startup.Console.Enabled && startup.Console.Level == "" {
		startup.Console.Level = LevelInfo
	}
	if startup.File.Enabled && startup.File.Level == "" {
		startup.File.Level = LevelInfo
	}

	dl, err := NewLogger(startup)
	if err != nil {
		return nil, err
	}
	dl.configuredConfig = config
	return dl, nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case LevelDebug:
		return zap.DebugLevel
	case LevelInfo:
		return zap.InfoLevel
	case LevelWarn:
		return zap.WarnLevel
	case LevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func resolveLevel(outputLevel string, globalLevel zapcore.Level) zapcore.Level {
	if outputLevel != "" {
		return parseLevel(outputLevel)
	}
	return globalLevel
}

func createEncoder(format string) zapcore.Encoder {
	if format == FormatJSON {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	if format == FormatText {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func createFileWriter(path string, rotation RotationConfig) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    rotation.MaxSize,
		MaxAge:     rotation.MaxAge,
		MaxBackups: rotation.MaxBackups,
		Compress:   rotation.Compress,
	})
}

// NewDefaultLogger returns a console-only DEBUG logger, used before a
// session's configuration has been loaded.
func NewDefaultLogger() (*DynamicLogger, error) {
	return NewLogger(Config{
		Level: LevelDebug,
		Console: ConsoleConfig{
			Enabled: true,
			Format:  FormatConsole,
		},
	})
}
