package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Session backends.
const (
	SessionFile   = "file"
	SessionRedis  = "redis"
	SessionMemory = "memory"
)

type Config struct {
	API struct {
		BaseURL string `yaml:"base_url" env:"QUIZROOM_API_URL"`
		Timeout string `yaml:"timeout" env:"QUIZROOM_API_TIMEOUT"`
	} `yaml:"api"`
	Stream struct {
		Enabled bool   `yaml:"enabled" env:"QUIZROOM_STREAM_ENABLED"`
		URL     string `yaml:"url" env:"QUIZROOM_STREAM_URL"`
	} `yaml:"stream"`
	Session struct {
		Backend string `yaml:"backend" env:"QUIZROOM_SESSION_BACKEND"`
		Path    string `yaml:"path" env:"QUIZROOM_SESSION_PATH"`
		Profile string `yaml:"profile" env:"QUIZROOM_PROFILE"`
		TTL     string `yaml:"ttl" env:"QUIZROOM_SESSION_TTL"`
	} `yaml:"session"`
	Redis struct {
		Addr     string `yaml:"addr" env:"QUIZROOM_REDIS_ADDR"`
		Password string `yaml:"password" env:"QUIZROOM_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"QUIZROOM_REDIS_DB"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"QUIZROOM_POSTGRES_URL"`
	} `yaml:"postgres"`
	Library struct {
		TTL string `yaml:"ttl" env:"QUIZROOM_LIBRARY_TTL"`
	} `yaml:"library"`
	Polling struct {
		RoomMembers       string `yaml:"room_members"`
		GameStatus        string `yaml:"game_status"`
		ManageMembers     string `yaml:"manage_members"`
		Leaderboard       string `yaml:"leaderboard"`
		LeaderboardManage string `yaml:"leaderboard_manage"`
	} `yaml:"polling"`
	Delays struct {
		ExitRedirect   string `yaml:"exit_redirect"`
		Reload         string `yaml:"reload"`
		DeleteRedirect string `yaml:"delete_redirect"`
		AnswerError    string `yaml:"answer_error"`
	} `yaml:"delays"`
	Log struct {
		Level  string `yaml:"level" env:"QUIZROOM_LOG_LEVEL"`
		Pretty bool   `yaml:"pretty" env:"QUIZROOM_LOG_PRETTY"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.API.BaseURL = "http://localhost:5000"
	cfg.API.Timeout = "30s"
	cfg.Session.Backend = SessionFile
	cfg.Session.Profile = "default"
	cfg.Library.TTL = "10m"
	cfg.Log.Level = "info"
	cfg.Log.Pretty = true
	return cfg
}

// DefaultPath is $XDG_CONFIG_HOME/quizroom/config.yaml (or the OS equivalent).
func DefaultPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// Load reads YAML config from path on top of the defaults, then applies
// QUIZROOM_* environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Session.Path == "" {
		cfg.Session.Path = filepath.Join(configDir(), "sessions", cfg.Session.Profile+".yaml")
	}
	switch cfg.Session.Backend {
	case SessionFile, SessionRedis, SessionMemory:
	default:
		return cfg, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
	if cfg.Session.Backend == SessionRedis && cfg.Redis.Addr == "" {
		return cfg, fmt.Errorf("session backend redis needs redis.addr")
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "quizroom")
}
