// Package logger builds the zap loggers used by the chat binaries.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects level, encoding and an optional log file.
type Options struct {
	Level  string
	Format string
	File   string
	// Quiet drops the stderr outputs, leaving File as the only sink.
	Quiet bool
}

// New returns a production zap logger configured from opts. Unknown levels
// fall back to info; Format is "json" (default) or "console".
func New(opts Options) (*zap.Logger, error) {
	log, _, err := NewWithLevel(opts)
	return log, err
}

// NewWithLevel is New but also returns the level handle, which can be
// changed while the logger is in use.
func NewWithLevel(opts Options) (*zap.Logger, zap.AtomicLevel, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(ParseLevel(opts.Level))

	switch strings.ToLower(opts.Format) {
	case "", "json":
	case "console":
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, config.Level, fmt.Errorf("unsupported log format %q", opts.Format)
	}

	if opts.Quiet {
		config.OutputPaths = nil
		config.ErrorOutputPaths = nil
	}
	if opts.File != "" {
		config.OutputPaths = append(config.OutputPaths, opts.File)
		config.ErrorOutputPaths = append(config.ErrorOutputPaths, opts.File)
	}

	log, err := config.Build()
	if err != nil {
		return nil, config.Level, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, config.Level, nil
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// OrNop returns log, or a no-op logger when log is nil.
func OrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
