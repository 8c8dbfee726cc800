// Package logging builds the zap logger shared by the engine and the CLI.
package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lj "gopkg.in/natefinch/lumberjack.v2"

	"github.com/ivlev/sprite2video/internal/config"
)

// New returns a logger writing to stderr in the configured format and, when
// cfg.File is set, JSON lines to a rotated file.
func New(cfg config.LoggingConfig) *zap.Logger {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg config.LoggingConfig, console io.Writer) *zap.Logger {
	level := ParseLevel(cfg.Level)
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var consoleEnc zapcore.Encoder
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		consoleEnc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		consoleEnc = zapcore.NewConsoleEncoder(encCfg)
	}
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.AddSync(console), level),
	}

	if strings.TrimSpace(cfg.File) != "" {
		w := &lj.Logger{Filename: cfg.File, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		fileEnc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEnc, zapcore.AddSync(w), level))
	}

	return zap.New(zapcore.NewTee(cores...)).With(zap.String("app", "sprite2video"))
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// Component returns l tagged with a component name.
func Component(l *zap.Logger, name string) *zap.Logger {
	return l.With(zap.String("component", name))
}
