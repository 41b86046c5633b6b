// Package logging configures the process-wide structured logger.
//
// All packages log through log/slog; this package decides where those
// records go (text for terminals, JSON for machine consumption, the
// systemd journal for unattended runs) and at which level.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Options controls handler selection for the default logger.
type Options struct {
	// Level is the minimum level to emit.
	Level slog.Level

	// JSON selects the JSON handler instead of text.
	JSON bool

	// Journal sends records to the systemd journal when it is available.
	// Falls back to the text handler otherwise.
	Journal bool
}

// SetDefaultStructuredLogger installs the default logger from environment
// settings alone (LOG_LEVEL, LOG_JSON, LOG_JOURNAL). The CLI layers flag
// values on top by calling Setup directly.
func SetDefaultStructuredLogger(name, version string) {
	Setup(name, version, Options{
		Level:   ParseLevel(os.Getenv("LOG_LEVEL")),
		JSON:    os.Getenv("LOG_JSON") != "",
		Journal: os.Getenv("LOG_JOURNAL") != "",
	})
}

// Setup installs the default slog logger according to opts.
func Setup(name, version string, opts Options) {
	if opts.Journal {
		if h, ok := newJournalHandler(name, version, opts.Level); ok {
			slog.SetDefault(slog.New(h))
			return
		}
		slog.Warn("systemd journal not available, falling back to text logging")
	}

	ho := &slog.HandlerOptions{Level: opts.Level}
	if opts.JSON {
		logger := slog.New(slog.NewJSONHandler(os.Stderr, ho)).With(
			slog.String("app", name),
			slog.String("version", version),
		)
		slog.SetDefault(logger)
		return
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, ho)))
}

// ParseLevel maps a level name to a slog.Level. Unknown or empty input
// yields Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
