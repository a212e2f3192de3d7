package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "halfway.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default configuration should be valid: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.WSPath != "/ws" {
		t.Errorf("WSPath = %q, want /ws", cfg.Server.WSPath)
	}
	if cfg.Animation.Duration != 2*time.Second || !cfg.Animation.Enabled {
		t.Errorf("unexpected animation defaults %+v", cfg.Animation)
	}
	// Client state lasts for the process unless a persistent store is chosen
	if cfg.Session.Store != "memory" {
		t.Errorf("Session.Store = %q, want memory", cfg.Session.Store)
	}
	if cfg.Session.Dir == "" {
		t.Error("Session.Dir should default so the file store can be opted into")
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  url: https://halfway.example
  timeout: 5s
session:
  store: badger
  dir: ""
  ttl: 24h
animation:
  duration: 500ms
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.URL != "https://halfway.example" {
		t.Errorf("URL = %s", cfg.Server.URL)
	}
	if cfg.Server.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s", cfg.Server.Timeout)
	}
	if cfg.Session.Store != "badger" || cfg.Session.TTL != 24*time.Hour {
		t.Errorf("unexpected session config %+v", cfg.Session)
	}
	if cfg.Animation.Duration != 500*time.Millisecond {
		t.Errorf("Animation.Duration = %s", cfg.Animation.Duration)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}
	// Untouched keys keep their defaults
	if cfg.Server.WSPath != "/ws" {
		t.Errorf("WSPath = %q, want default /ws", cfg.Server.WSPath)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  url: https://from-file.example\n")
	t.Setenv("HALFWAY_SERVER_URL", "https://from-env.example")
	t.Setenv("HALFWAY_LOG_LEVEL", "warn")
	t.Setenv("HALFWAY_POINTS_BURST", "3")
	t.Setenv("HALFWAY_ANIMATION_DURATION", "1s")
	t.Setenv("HALFWAY_UNRELATED", "ignored")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.URL != "https://from-env.example" {
		t.Errorf("env should override the file, got %s", cfg.Server.URL)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %s, want warn", cfg.Logging.Level)
	}
	if cfg.Points.Burst != 3 {
		t.Errorf("Points.Burst = %d, want 3", cfg.Points.Burst)
	}
	if cfg.Animation.Duration != time.Second {
		t.Errorf("Animation.Duration = %s, want 1s", cfg.Animation.Duration)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad url", func(c *Config) { c.Server.URL = "not a url" }},
		{"ws path without slash", func(c *Config) { c.Server.WSPath = "ws" }},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }},
		{"unknown store", func(c *Config) { c.Session.Store = "redis" }},
		{"file store without dir", func(c *Config) {
			c.Session.Store = "file"
			c.Session.Dir = ""
		}},
		{"ttl without badger", func(c *Config) { c.Session.TTL = time.Hour }},
		{"negative animation", func(c *Config) { c.Animation.Duration = -time.Second }},
		{"zero burst", func(c *Config) { c.Points.Burst = 0 }},
		{"unknown level", func(c *Config) { c.Logging.Level = "loud" }},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadFile_IgnoresEnv(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: error\n")
	t.Setenv("HALFWAY_LOG_LEVEL", "debug")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("LoadFile should ignore the environment, got level %s", cfg.Logging.Level)
	}
}

func TestWebSocketPath(t *testing.T) {
	cfg := Default()
	cfg.Server.WSPath = "//socket"
	if got := cfg.WebSocketPath(); got != "/socket" {
		t.Errorf("WebSocketPath = %s", got)
	}
}
