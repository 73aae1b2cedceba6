// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string // trace, debug, info, warn, error, disabled
	Format     string // console, json
	TimeFormat string
	Output     string // stderr, stdout, or a file path
}

// DefaultConfig returns the configuration used before config files are read.
// Logs go to stderr because stdout carries the worker protocol.
func DefaultConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		Format:     "console",
		TimeFormat: time.RFC3339,
		Output:     "stderr",
	}
}

// Setup initializes the global logger with the provided configuration.
func Setup(config LogConfig) error {
	level, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)

	var (
		output io.Writer
		tty    bool
	)
	switch config.Output {
	case "", "stderr":
		output = os.Stderr
		tty = term.IsTerminal(int(os.Stderr.Fd()))
	case "stdout":
		output = os.Stdout
		tty = term.IsTerminal(int(os.Stdout.Fd()))
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		output = file
	}

	if strings.ToLower(config.Format) != "json" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: config.TimeFormat,
			NoColor:    !tty,
		}
	}

	log.Logger = zerolog.New(output).With().
		Timestamp().
		Logger()

	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	}
	return nil
}

// WithComponent returns a logger with a component field.
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

// WithRequest returns a logger for one worker request.
func WithRequest(component string, id uint64, action string) zerolog.Logger {
	return log.Logger.With().
		Str("component", component).
		Uint64("request_id", id).
		Str("action", action).
		Logger()
}
