package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init sets up the global structured logger. Level is parsed from the given
// string ("debug", "info", "warn", "error") and falls back to info.
func Init(level, service string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.DurationFieldInteger = true

	log = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", service).
		Logger()
}

// Get returns the underlying logger for components that log structured fields.
func Get() *zerolog.Logger {
	return &log
}

func Info(format string, v ...interface{}) {
	log.Info().Msgf(format, v...)
}

func Error(format string, v ...interface{}) {
	log.Error().Msgf(format, v...)
}

func Debug(format string, v ...interface{}) {
	log.Debug().Msgf(format, v...)
}

func Warn(format string, v ...interface{}) {
	log.Warn().Msgf(format, v...)
}

// LogTransactionError records a transaction attempt that lost an optimistic
// conflict and will be retried or surfaced.
func LogTransactionError(operation string, attempt int, err error) {
	log.Warn().
		Str("operation", operation).
		Int("attempt", attempt).
		Err(err).
		Msg("transaction conflict")
}
