// Package logging builds the application's zap logger.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a colored console logger in dev mode and a JSON production logger otherwise.
func New(dev bool) (*zap.Logger, error) {
	if dev {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
	return zap.NewProduction()
}

// Must is New for main: it falls back to a no-op logger instead of failing.
func Must(dev bool) *zap.Logger {
	logger, err := New(dev)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
