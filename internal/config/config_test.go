package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Session.Backend != SessionFile || cfg.Session.Profile != "default" {
		t.Fatalf("unexpected session defaults: %+v", cfg.Session)
	}
	if cfg.Session.Path == "" {
		t.Fatalf("expected a default session path")
	}
	if cfg.API.BaseURL == "" {
		t.Fatalf("expected a default api url")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
api:
  base_url: http://quiz.test/api
  timeout: 5s
session:
  backend: memory
polling:
  leaderboard: 10s
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QUIZROOM_API_URL", "http://override.test")
	t.Setenv("QUIZROOM_PROFILE", "bob")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.BaseURL != "http://override.test" {
		t.Fatalf("expected env override, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != "5s" || cfg.Session.Backend != SessionMemory || cfg.Log.Level != "debug" {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if filepath.Base(cfg.Session.Path) != "bob.yaml" {
		t.Fatalf("expected profile-specific session file, got %q", cfg.Session.Path)
	}
	if got := Duration(cfg.Polling.Leaderboard, time.Second); got != 10*time.Second {
		t.Fatalf("expected 10s leaderboard interval, got %v", got)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("QUIZROOM_SESSION_BACKEND", "floppy")
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadRedisBackendNeedsAddr(t *testing.T) {
	t.Setenv("QUIZROOM_SESSION_BACKEND", "redis")
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error without redis addr")
	}
}

func TestDuration(t *testing.T) {
	if got := Duration("", time.Minute); got != time.Minute {
		t.Fatalf("empty should fall back, got %v", got)
	}
	if got := Duration("nonsense", time.Minute); got != time.Minute {
		t.Fatalf("invalid should fall back, got %v", got)
	}
	if got := Duration("1500ms", time.Minute); got != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s, got %v", got)
	}
}
