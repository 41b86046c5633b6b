package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/coreos/go-systemd/v22/journal"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"  info  ", slog.LevelInfo},
		{"garbage", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestJournalPriority(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  journal.Priority
	}{
		{slog.LevelDebug, journal.PriDebug},
		{slog.LevelInfo, journal.PriInfo},
		{slog.LevelWarn, journal.PriWarning},
		{slog.LevelError, journal.PriErr},
		{slog.LevelError + 4, journal.PriErr},
	}

	for _, tt := range tests {
		if got := journalPriority(tt.level); got != tt.want {
			t.Errorf("journalPriority(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestJournalFieldName(t *testing.T) {
	tests := []struct {
		group string
		key   string
		want  string
	}{
		{"", "error", "ERROR"},
		{"", "node.name", "NODE_NAME"},
		{"power", "tick", "POWER_TICK"},
		{"", "2fast", "X2FAST"},
		{"", "", "X"},
	}

	for _, tt := range tests {
		if got := journalFieldName(tt.group, tt.key); got != tt.want {
			t.Errorf("journalFieldName(%q, %q) = %q, want %q", tt.group, tt.key, got, tt.want)
		}
	}
}

func TestSetupRestoresDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	Setup("hivectl-test", "dev", Options{Level: slog.LevelWarn})

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled at warn level")
	}
	if !slog.Default().Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}
