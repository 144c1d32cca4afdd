// Package logger configures structured logging for the skill progress hub.
// Infrastructure and application layers log through *slog.Logger; this
// package owns level parsing, output format, and the common app fields.
// No external dependencies - uses only standard library.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the log output encoding.
type Format string

const (
	// FormatJSON emits one JSON object per line (production default).
	FormatJSON Format = "json"

	// FormatText emits human-readable key=value lines (development).
	FormatText Format = "text"
)

// Options configures the logger.
type Options struct {
	// Level is the minimum level: "debug", "info", "warn", "error".
	Level string

	// Format is "json" or "text".
	Format Format

	// Output defaults to os.Stdout.
	Output io.Writer

	// AddSource includes file:line of the caller.
	AddSource bool

	// AppName and Version are attached to every record when non-empty.
	AppName string
	Version string
}

// DefaultOptions returns sensible defaults for the logger.
func DefaultOptions() Options {
	return Options{
		Level:  "info",
		Format: FormatJSON,
		Output: os.Stdout,
	}
}

// ParseLevel parses a string into a slog.Level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a configured *slog.Logger.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     ParseLevel(opts.Level),
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	switch opts.Format {
	case FormatText:
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	default:
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	}

	log := slog.New(handler)
	if opts.AppName != "" {
		log = log.With(slog.String("app", opts.AppName))
	}
	if opts.Version != "" {
		log = log.With(slog.String("version", opts.Version))
	}
	return log
}

// Default creates a logger with default options.
func Default() *slog.Logger {
	return New(DefaultOptions())
}
