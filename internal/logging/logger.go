// Package logging builds the structured logger used by mosquitto-build.
//
// It wraps log/slog with:
//
//   - text output by default, JSON for CI log collectors
//   - level filtering (debug, info, warn, error)
//   - default fields (service, version) on every record
//
// Diagnostics go to stderr unless configured otherwise, so that stdout only
// carries the link directives the enclosing build consumes.
package logging

import (
	"io"
	"log/slog"
	"strings"

	mosquittobuild "github.com/contriboss/mosquitto-build"
)

// ServiceName is attached to every record.
const ServiceName = "mosquitto-build"

// New creates a logger writing to stdout or stderr as cfg.Output selects.
// Anything other than "stdout" means stderr.
func New(cfg mosquittobuild.LoggingConfig, version string, stdout, stderr io.Writer) *slog.Logger {
	output := stderr
	if strings.EqualFold(cfg.Output, "stdout") {
		output = stdout
	}

	return NewWithWriter(cfg, version, output)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(cfg mosquittobuild.LoggingConfig, version string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", ServiceName),
		slog.String("version", version),
	})

	return slog.New(handler)
}

// parseLevel converts a string log level to slog.Level.
// Defaults to info if unrecognised.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
