// Package logging builds the zap logger used across wastebin. Logs go to a
// file by default so they never interleave with the interactive menu.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelOff disables logging entirely.
const LevelOff = "off"

// Config selects the log level and destination.
type Config struct {
	// Level is a zap level name (debug, info, warn, error) or "off".
	// Empty means info.
	Level string

	// Path is the log file. "stderr" and "stdout" are accepted. Empty
	// means stderr.
	Path string
}

// New returns a JSON logger writing to cfg.Path at cfg.Level.
func New(cfg Config) (*zap.Logger, error) {
	levelName := strings.ToLower(strings.TrimSpace(cfg.Level))
	if levelName == LevelOff {
		return zap.NewNop(), nil
	}
	if levelName == "" {
		levelName = "info"
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	out := strings.TrimSpace(cfg.Path)
	if out == "" {
		out = "stderr"
	}
	if out != "stderr" && out != "stdout" {
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Sampling = nil
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.OutputPaths = []string{out}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
