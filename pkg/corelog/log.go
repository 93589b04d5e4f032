// Package corelog provides the storage engine's logging entry point: a
// package-level zerolog.Logger plus child-logger helpers tagging records
// with the storage module and operation they belong to.
package corelog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var (
	// Logger is the global logger instance
	Logger zerolog.Logger
)

// Level represents log level
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init initializes the global logger
func Init(cfg Config) {
	// Set log level
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case InfoLevel:
		level = zerolog.InfoLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	// Use JSON or console output
	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

// WithStorage creates a child logger tagged with the storage module name,
// the way every save/read/remove log line is scoped to the module it ran
// against.
func WithStorage(storage string) zerolog.Logger {
	return Logger.With().Str("storage", storage).Logger()
}

// WithOperation creates a child logger tagged with the operation in
// progress (e.g. "save", "read", "check"). It derives from the global
// Logger, not from a WithStorage logger; callers that need both fields add
// the storage field themselves.
func WithOperation(op string) zerolog.Logger {
	return Logger.With().Str("op", op).Logger()
}
