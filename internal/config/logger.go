package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel parses a zap level name; empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

// NewLogger builds the process logger: production JSON with ISO8601
// timestamps, or the development console encoder.
func NewLogger(c LogConfig) (*zap.Logger, error) {
	lvl, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	logConfig := zap.NewProductionConfig()
	if c.Development {
		logConfig = zap.NewDevelopmentConfig()
	}
	logConfig.Level = zap.NewAtomicLevelAt(lvl)
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return logConfig.Build()
}
