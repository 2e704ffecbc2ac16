package util

import (
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	defaultLogger *zap.Logger
	forceDebug    atomic.Bool
)

func init() {
	defaultLogger = NewLogger("cyberaudit")
}

// NewLogger creates a new logger with the specified name
func NewLogger(name string) *zap.Logger {
	level := getLogLevel()

	config := zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "logger",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger.Named(name)
}

// EnableDebug switches every logger built afterwards, and the default one, to debug level.
func EnableDebug() {
	forceDebug.Store(true)
	defaultLogger = NewLogger("cyberaudit")
}

func getLogLevel() zapcore.Level {
	if forceDebug.Load() {
		return zapcore.DebugLevel
	}
	levelStr := strings.ToUpper(os.Getenv("CYBERAUDIT_LOG_LEVEL"))
	switch levelStr {
	case "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	case "CRITICAL", "FATAL":
		return zapcore.FatalLevel
	default:
		return zapcore.WarnLevel
	}
}

// GetLogger returns the default logger
func GetLogger() *zap.Logger {
	return defaultLogger
}
