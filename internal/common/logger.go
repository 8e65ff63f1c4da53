package common

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Logger *zap.Logger

// InitLogger builds the process logger once. file, when set, receives a
// copy of every entry next to stderr.
func InitLogger(level, file string) error {
	if Logger != nil {
		return nil
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	if fn := strings.TrimSpace(file); fn != "" {
		if dir := filepath.Dir(fn); dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		cfg.OutputPaths = append(cfg.OutputPaths, fn)
		cfg.ErrorOutputPaths = append(cfg.ErrorOutputPaths, fn)
	}
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	Logger = l
	return nil
}

// L returns the process logger, or a no-op logger before InitLogger.
func L() *zap.Logger {
	if Logger == nil {
		return zap.NewNop()
	}
	return Logger
}

func ParseLevel(l string) zapcore.Level {
	switch strings.ToLower(l) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
