// Package logger builds the process-wide zap logger from LOG_LEVEL and LOG_FORMAT.
package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu            sync.Mutex
	defaultLogger *zap.Logger
)

// New builds a logger. format "json" gives the production encoder, anything
// else the console one. Unknown levels fall back to info.
func New(level, format string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil || level == "" {
		lvl = zapcore.InfoLevel
	}
	var cfg zap.Config
	if strings.EqualFold(format, "json") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// Setup installs l as the process logger and zap's global.
func Setup(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
	zap.ReplaceGlobals(l)
}

// L returns the process logger, or a no-op logger before Setup.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		return zap.NewNop()
	}
	return defaultLogger
}
