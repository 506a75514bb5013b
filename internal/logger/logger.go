package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It is a no-op logger until Init is called.
var Log = zap.NewNop()

var initOnce sync.Once

// Init configures Log at info level. Subsequent calls are no-ops.
func Init() {
	InitWithLevel("info")
}

// InitWithLevel configures Log with the named level (debug, info, warn, error).
// Unknown names fall back to info.
func InitWithLevel(level string) {
	initOnce.Do(func() {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
		cfg.DisableStacktrace = true
		l, err := cfg.Build()
		if err != nil {
			return
		}
		Log = l
	})
}

// ParseLevel maps a level name to a zap level.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Log.Sync()
}
