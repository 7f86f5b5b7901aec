package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Server.BindAddr != "127.0.0.1:8787" {
		t.Fatalf("unexpected default bind addr: %s", cfg.Server.BindAddr)
	}
}

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.BindAddr != Default().Server.BindAddr {
		t.Fatalf("expected default config, got %+v", cfg)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promptivd.yaml")
	content := "server:\n  bind_addr: \"0.0.0.0:9999\"\n  require_sink: true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.BindAddr != "0.0.0.0:9999" {
		t.Fatalf("expected overridden bind_addr, got %s", cfg.Server.BindAddr)
	}
	if !cfg.Server.RequireSink {
		t.Fatal("expected require_sink to be overridden to true")
	}
	// Values not present in the file keep their defaults.
	if cfg.Server.MaxMissedPings != Default().Server.MaxMissedPings {
		t.Fatalf("expected unset field to keep default, got %d", cfg.Server.MaxMissedPings)
	}
}

func TestLoad_DurationFieldsAreWholeSeconds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promptivd.yaml")
	content := "server:\n  dispatch_timeout: 2\n  websocket_ping_interval: 5\n  websocket_pong_timeout: 3\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.Server.DispatchTimeout.Duration(); got != 2*time.Second {
		t.Fatalf("expected dispatch_timeout of 2s, got %s", got)
	}
	if got := cfg.Server.WebsocketPingInterval.Duration(); got != 5*time.Second {
		t.Fatalf("expected websocket_ping_interval of 5s, got %s", got)
	}
	if got := cfg.Server.WebsocketPongTimeout.Duration(); got != 3*time.Second {
		t.Fatalf("expected websocket_pong_timeout of 3s, got %s", got)
	}
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("PROMPTIVD_TEST_VAR", "substituted")
	out := SubstituteEnvVars("value: ${PROMPTIVD_TEST_VAR}")
	if out != "value: substituted" {
		t.Fatalf("unexpected substitution: %s", out)
	}
}

func TestSubstituteEnvVars_Default(t *testing.T) {
	out := SubstituteEnvVars("value: ${PROMPTIVD_UNSET_VAR:-fallback}")
	if out != "value: fallback" {
		t.Fatalf("unexpected substitution: %s", out)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PROMPTIVD_SERVER_BIND_ADDR", "10.0.0.1:1111")
	cfg := Default()
	cfg.ApplyEnvOverrides()
	if cfg.Server.BindAddr != "10.0.0.1:1111" {
		t.Fatalf("expected env override, got %s", cfg.Server.BindAddr)
	}
}

func TestValidate_RejectsUnknownAuditDriver(t *testing.T) {
	cfg := Default()
	cfg.Audit.Driver = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown audit driver")
	}
}
