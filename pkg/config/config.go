// Package config assembles the process-wide configuration value.
//
// The configuration is built once at process start (defaults, then
// environment, then CLI flags layered on by the caller) and threaded
// explicitly into constructors; nothing reads it as global state.
package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/hivelab/hivectl/pkg/defaults"
)

// Config holds every tunable the commands need.
type Config struct {
	// Profile storage
	ProfilesDir   string
	SelectionFile string

	// Remote execution
	RemoteDir   string
	SSHBin      string
	RsyncBin    string
	PlaybookBin string
	PlaybookDir string
	ComputeUser string

	// Generated inventory
	InventoryFile string

	// Power lifecycle
	WOLBroadcast   string
	PollInterval   time.Duration
	ProbeTimeout   time.Duration
	CommandTimeout time.Duration

	// Golden image paths on the control host
	ImageRoot  string
	ExportPath string

	// Observability
	MetricsFile string
	LogLevel    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	cfg := &Config{
		ProfilesDir:    defaults.ProfilesDir,
		SelectionFile:  defaults.SelectionFile,
		RemoteDir:      defaults.RemoteDir,
		SSHBin:         defaults.SSHBin,
		RsyncBin:       defaults.RsyncBin,
		PlaybookBin:    defaults.PlaybookBin,
		PlaybookDir:    defaults.PlaybookDir,
		ComputeUser:    defaults.ComputeUser,
		InventoryFile:  defaults.InventoryFile,
		WOLBroadcast:   defaults.WOLBroadcast,
		PollInterval:   defaults.PollInterval,
		ProbeTimeout:   defaults.ProbeTimeout,
		CommandTimeout: defaults.CommandTimeout,
		ImageRoot:      defaults.ImageRoot,
		ExportPath:     defaults.ExportPath,
		LogLevel:       slog.LevelInfo.String(),
	}

	// Override with environment variables if set
	if dir := os.Getenv("HIVECTL_PROFILES_DIR"); dir != "" {
		cfg.ProfilesDir = dir
	}

	if file := os.Getenv("HIVECTL_SELECTION_FILE"); file != "" {
		cfg.SelectionFile = file
	}

	if dir := os.Getenv("HIVECTL_REMOTE_DIR"); dir != "" {
		cfg.RemoteDir = dir
	}

	if addr := os.Getenv("HIVECTL_WOL_BROADCAST"); addr != "" {
		cfg.WOLBroadcast = addr
	}

	if interval := os.Getenv("HIVECTL_POLL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil && d > 0 {
			cfg.PollInterval = d
		}
	}

	if file := os.Getenv("HIVECTL_METRICS_FILE"); file != "" {
		cfg.MetricsFile = file
	}

	if logLevelStr := os.Getenv("LOG_LEVEL"); logLevelStr != "" {
		cfg.LogLevel = logLevelStr
	}

	return cfg
}
