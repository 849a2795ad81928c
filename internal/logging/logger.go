// Package logging provides structured logging for the audit engine.
// All packages log through the Logger interface so tests can swap in a nop.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// keyValuePairSize represents the number of elements in a key-value pair.
const keyValuePairSize = 2

// Logger defines the interface for structured logging.
type Logger interface {
	// Debug logs a message at debug level.
	Debug(msg string, keysAndValues ...any)
	// Info logs a message at info level.
	Info(msg string, keysAndValues ...any)
	// Warn logs a message at warning level.
	Warn(msg string, keysAndValues ...any)
	// Error logs a message at error level.
	Error(msg string, keysAndValues ...any)
	// Fatal logs a message at fatal level and exits.
	Fatal(msg string, keysAndValues ...any)
	// With returns a new logger with the given key-value pairs attached.
	With(keysAndValues ...any) Logger
	// Sync flushes any buffered log entries.
	Sync() error
}

// Config represents the logger configuration.
type Config struct {
	// Level is the minimum logging level (debug, info, warn, error, fatal).
	Level string `env:"LOG_LEVEL" yaml:"level"`
	// Format is the output format: "json" or "console".
	Format string `env:"LOG_FORMAT" yaml:"format"`
	// Development disables sampling so all entries are visible.
	Development bool `yaml:"development"`
	// OutputPaths is a list of URLs or file paths to write output to.
	OutputPaths []string `yaml:"output_paths"`
}

// SetDefaults applies default values to the config if not set.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stdout"}
	}
}

// zapLogger is a zap-based implementation of the Logger interface.
type zapLogger struct {
	logger *zap.Logger
}

// New creates a new Logger with the given configuration.
func New(cfg Config) (Logger, error) {
	cfg.SetDefaults()

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg.Encoding = "console"
	}
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	zapCfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zapCfg.OutputPaths = cfg.OutputPaths

	if cfg.Development {
		zapCfg.Sampling = nil
	}

	z, err := zapCfg.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}

	return &zapLogger{logger: z}, nil
}

// Must creates a new Logger and exits if it fails.
// Use this for initialization where failure should be fatal.
func Must(cfg Config) Logger {
	l, err := New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return l
}

// parseLevel converts a string level to zapcore.Level.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Debug logs a message at debug level.
func (l *zapLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, toFields(keysAndValues)...)
}

// Info logs a message at info level.
func (l *zapLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info(msg, toFields(keysAndValues)...)
}

// Warn logs a message at warning level.
func (l *zapLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warn(msg, toFields(keysAndValues)...)
}

// Error logs a message at error level.
func (l *zapLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error(msg, toFields(keysAndValues)...)
}

// Fatal logs a message at fatal level and exits.
func (l *zapLogger) Fatal(msg string, keysAndValues ...any) {
	l.logger.Fatal(msg, toFields(keysAndValues)...)
}

// With returns a new logger with the given key-value pairs attached.
func (l *zapLogger) With(keysAndValues ...any) Logger {
	return &zapLogger{logger: l.logger.With(toFields(keysAndValues)...)}
}

// Sync flushes any buffered log entries.
func (l *zapLogger) Sync() error {
	return l.logger.Sync()
}

// toFields converts key-value pairs to zap fields.
// Pairs with a non-string key or a missing value are dropped.
func toFields(keysAndValues []any) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/keyValuePairSize)
	for i := 0; i+1 < len(keysAndValues); i += keyValuePairSize {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
