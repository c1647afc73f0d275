package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" || cfg.MaxTurns != 5 || cfg.SessionTTL != time.Hour {
		t.Errorf("unexpected defaults: port=%s max_turns=%d ttl=%s", cfg.Port, cfg.MaxTurns, cfg.SessionTTL)
	}
	if cfg.Store.Driver != "memory" || cfg.Missions != "llm" {
		t.Errorf("unexpected store/mission defaults: %s/%s", cfg.Store.Driver, cfg.Missions)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Errorf("LLM timeout = %s", cfg.LLM.Timeout)
	}
	if !cfg.ConversationLog.Enabled || cfg.ConversationLog.QueueSize != 1000 {
		t.Errorf("unexpected conversation log defaults: %+v", cfg.ConversationLog)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_KEY", "sk-test")
	t.Setenv("MAX_TURNS", "3")
	t.Setenv("SESSION_STORE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/helpdesk")
	t.Setenv("LLM_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxTurns != 3 {
		t.Errorf("MaxTurns = %d, want 3", cfg.MaxTurns)
	}
	if cfg.Store.DSN() != "postgres://localhost/helpdesk" {
		t.Errorf("DSN() = %q", cfg.Store.DSN())
	}
	if cfg.LLM.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s", cfg.LLM.Timeout)
	}
}

func TestLoadPoolMissions(t *testing.T) {
	t.Setenv("API_KEY", "sk-test")
	t.Setenv("MISSION_SOURCE", "pool")
	t.Setenv("SESSION_STORE", "sqlite")
	t.Setenv("DB_PATH", "/tmp/helpdesk.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Missions != "pool" || cfg.Store.Driver != "sqlite" || cfg.Store.DBPath != "/tmp/helpdesk.db" {
		t.Errorf("unexpected config: missions=%s store=%+v", cfg.Missions, cfg.Store)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "missing key", env: map[string]string{}, want: "API_KEY"},
		{name: "zero turns", env: map[string]string{"API_KEY": "k", "MAX_TURNS": "0"}, want: "MAX_TURNS"},
		{name: "bad source", env: map[string]string{"API_KEY": "k", "MISSION_SOURCE": "dice"}, want: "MISSION_SOURCE"},
		{name: "bad store", env: map[string]string{"API_KEY": "k", "SESSION_STORE": "redis"}, want: "SESSION_STORE"},
		{name: "postgres without dsn", env: map[string]string{"API_KEY": "k", "SESSION_STORE": "postgres"}, want: "DB_POSTGRES_DSN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("API_KEY", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestIsDevelopment(t *testing.T) {
	tests := map[string]bool{
		"":                      true,
		"http://localhost:5173": true,
		"http://127.0.0.1:8080": true,
		"https://helpdesk.app":  false,
	}
	for url, want := range tests {
		c := &Config{FrontendURL: url}
		if got := c.IsDevelopment(); got != want {
			t.Errorf("IsDevelopment(%q) = %v, want %v", url, got, want)
		}
	}
}
