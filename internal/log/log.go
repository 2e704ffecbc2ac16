// Package log provides the structured logger used by the platform layer.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	logger = zerolog.New(output).
		With().
		Timestamp().
		Str("component", "system").
		Logger()

	// Warnings only by default: the audit prints its own progress on stderr.
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if level, err := zerolog.ParseLevel(lvl); err == nil {
			zerolog.SetGlobalLevel(level)
		}
	}
}

// SetOutput sets the logger output destination
func SetOutput(w io.Writer) {
	logger = logger.Output(w)
}

// SetLevel sets the global log level
func SetLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// Logger returns the underlying zerolog logger for callers that need fields.
func Logger() *zerolog.Logger {
	return &logger
}

// Debug logs a debug message
func Debug(msg string) {
	logger.Debug().Msg(msg)
}

// Debugf logs a formatted debug message
func Debugf(format string, args ...interface{}) {
	logger.Debug().Msgf(format, args...)
}

// Infof logs a formatted info message
func Infof(format string, args ...interface{}) {
	logger.Info().Msgf(format, args...)
}

// Warnf logs a formatted warning message
func Warnf(format string, args ...interface{}) {
	logger.Warn().Msgf(format, args...)
}

// ErrorWithErr logs an error with the error object
func ErrorWithErr(err error, msg string) {
	logger.Error().Err(err).Msg(msg)
}
