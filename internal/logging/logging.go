// Package logging builds the zap loggers used by the snake arm
// drivers.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"zappem.net/pub/kinematics/fabrik"
)

// ParseLevel maps a level name ("debug", "info", "warn", "error") onto
// a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

// NewLoggerConfig returns a console logger config at level writing to
// paths. Stacktraces are disabled and levels are colored when the
// destination is a terminal stream.
func NewLoggerConfig(level zapcore.Level, paths ...string) zap.Config {
	if len(paths) == 0 {
		paths = []string{"stderr"}
	}
	encodeLevel := zapcore.CapitalLevelEncoder
	if len(paths) == 1 && (paths[0] == "stderr" || paths[0] == "stdout") {
		encodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    encodeLevel,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       paths,
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// New returns a named logger at the named level writing to path, or to
// stderr when path is empty.
func New(name, level, path string) (*zap.Logger, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	var paths []string
	if path != "" {
		paths = append(paths, path)
	}
	logger, err := NewLoggerConfig(l, paths...).Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build: %w", err)
	}
	return logger.Named(name), nil
}

// SolveFields returns the structured fields describing a solve.
func SolveFields(r fabrik.Report) []zap.Field {
	return []zap.Field{
		zap.Bool("reachable", r.Reachable),
		zap.Bool("converged", r.Converged),
		zap.Int("iterations", r.Iterations),
		zap.Float64("tip_error", r.TipError),
	}
}
