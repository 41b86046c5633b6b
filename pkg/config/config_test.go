package config

import (
	"testing"
	"time"

	"github.com/hivelab/hivectl/pkg/defaults"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ProfilesDir != defaults.ProfilesDir {
		t.Errorf("ProfilesDir = %q, want %q", cfg.ProfilesDir, defaults.ProfilesDir)
	}
	if cfg.PollInterval != defaults.PollInterval {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, defaults.PollInterval)
	}
	if cfg.SSHBin != "ssh" || cfg.RsyncBin != "rsync" {
		t.Errorf("unexpected transport binaries: %q, %q", cfg.SSHBin, cfg.RsyncBin)
	}
	if cfg.MetricsFile != "" {
		t.Errorf("MetricsFile should default to empty, got %q", cfg.MetricsFile)
	}
}

func TestDefaultConfigEnvOverrides(t *testing.T) {
	t.Setenv("HIVECTL_PROFILES_DIR", "/tmp/profiles")
	t.Setenv("HIVECTL_POLL_INTERVAL", "250ms")
	t.Setenv("HIVECTL_WOL_BROADCAST", "192.168.1.255:7")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := DefaultConfig()

	if cfg.ProfilesDir != "/tmp/profiles" {
		t.Errorf("ProfilesDir = %q, want /tmp/profiles", cfg.ProfilesDir)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v, want 250ms", cfg.PollInterval)
	}
	if cfg.WOLBroadcast != "192.168.1.255:7" {
		t.Errorf("WOLBroadcast = %q", cfg.WOLBroadcast)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestDefaultConfigRejectsBadInterval(t *testing.T) {
	t.Setenv("HIVECTL_POLL_INTERVAL", "not-a-duration")

	cfg := DefaultConfig()
	if cfg.PollInterval != defaults.PollInterval {
		t.Errorf("bad interval should keep default, got %v", cfg.PollInterval)
	}
}
