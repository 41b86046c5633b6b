package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

// journalHandler forwards slog records to the systemd journal so that
// unattended runs (cron-driven power cycles, timers) end up in journald
// with proper priorities instead of a detached stderr.
type journalHandler struct {
	ident   string
	version string
	level   slog.Level
	attrs   []slog.Attr
	group   string
}

// newJournalHandler returns a handler backed by the local journal socket.
// The second return is false when no journal is reachable.
func newJournalHandler(name, version string, level slog.Level) (slog.Handler, bool) {
	if !journal.Enabled() {
		return nil, false
	}
	return &journalHandler{ident: name, version: version, level: level}, true
}

func (h *journalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *journalHandler) Handle(_ context.Context, r slog.Record) error {
	vars := map[string]string{
		"SYSLOG_IDENTIFIER": h.ident,
		"APP_VERSION":       h.version,
	}
	for _, a := range h.attrs {
		vars[journalFieldName(h.group, a.Key)] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		vars[journalFieldName(h.group, a.Key)] = a.Value.String()
		return true
	})
	return journal.Send(r.Message, journalPriority(r.Level), vars)
}

func (h *journalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

func (h *journalHandler) WithGroup(name string) slog.Handler {
	nh := *h
	if nh.group != "" {
		nh.group += "_" + name
	} else {
		nh.group = name
	}
	return &nh
}

// journalPriority maps slog levels to journal priorities.
func journalPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// journalFieldName converts an attr key into a valid journal field name:
// uppercase, [A-Z0-9_] only, must not start with a digit.
func journalFieldName(group, key string) string {
	name := key
	if group != "" {
		name = group + "_" + key
	}

	var b strings.Builder
	for _, c := range strings.ToUpper(name) {
		switch {
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	if out == "" || out[0] >= '0' && out[0] <= '9' {
		out = "X" + out
	}
	return out
}
