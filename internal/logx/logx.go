// Package logx constructs the structured logger that the CLI uses and
// passes to the Executor through constructor injection — no package-level
// globals, per spec.md §9's "re-architect away from process-wide state"
// design note applied to the ambient stack as well as the domain core.
//
// Grounded on EdgxCloud-EdgeFlow/internal/logger/logger.go's console +
// rotated-JSON-file tee, trimmed of its WebSocket bridge (this machine
// has no web frontend to push logs to).
package logx

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where and how diagnostic text is emitted.
type Config struct {
	Level      string // debug, info, warn, error
	LogDir     string // directory for rotated JSON logs; empty disables file logging
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultConfig matches the console-only defaults suitable for running
// the controller interactively at the machine.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSizeMB:  20,
		MaxBackups: 3,
		MaxAgeDays: 14,
	}
}

// New builds a *zap.SugaredLogger per cfg: a console encoder always on,
// plus an optional rotated JSON file sink when LogDir is set.
func New(cfg Config) (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var cores []zapcore.Core
	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level))

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("logx: create log dir: %w", err)
		}
		fileWriter := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.LogDir, "cncrouter.log"),
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		jsonEncoder := zapcore.NewJSONEncoder(encoderCfg)
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(fileWriter), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return logger.Sugar(), nil
}

// Noop returns a logger that discards everything, for tests that don't
// care about diagnostic output.
func Noop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
