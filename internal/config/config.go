// Package config provides application configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	Port        string        `env:"PORT" envDefault:"8080"`
	FrontendURL string        `env:"FRONTEND_URL"`
	MaxTurns    int           `env:"MAX_TURNS" envDefault:"5"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"60m"`
	TTLInterval time.Duration `env:"SESSION_TTL_INTERVAL" envDefault:"5m"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	LLM      LLMConfig
	Missions string `env:"MISSION_SOURCE" envDefault:"llm"`

	Store           StoreConfig
	ConversationLog ConversationLogConfig
	RateLimit       RateLimitConfig
}

// LLMConfig selects the model provider and models.
type LLMConfig struct {
	APIKey         string        `env:"API_KEY"`
	BaseURL        string        `env:"BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	ResponderModel string        `env:"RESPONDER_MODEL" envDefault:"gpt-4o-mini"`
	RefereeModel   string        `env:"REFEREE_MODEL" envDefault:"gpt-4o-mini"`
	PersonaModel   string        `env:"PERSONA_MODEL" envDefault:"x-ai/grok-4-fast"`
	MissionModel   string        `env:"MISSION_MODEL" envDefault:"anthropic/claude-haiku-4.5"`
	Timeout        time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
}

// StoreConfig selects the session store backend.
type StoreConfig struct {
	Driver      string `env:"SESSION_STORE" envDefault:"memory"`
	DBPath      string `env:"DB_PATH" envDefault:"./data/helpdesk.db"`
	PostgresDSN string `env:"DB_POSTGRES_DSN"`
	DatabaseURL string `env:"DATABASE_URL"`
}

// DSN returns the PostgreSQL connection string, preferring DB_POSTGRES_DSN.
func (s StoreConfig) DSN() string {
	if s.PostgresDSN != "" {
		return s.PostgresDSN
	}
	return s.DatabaseURL
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled       bool   `env:"CONVERSATION_LOG_ENABLED" envDefault:"true"`
	Dir           string `env:"CONVERSATION_LOG_DIR" envDefault:"./data/logs/conversations"`
	GlobalEnabled bool   `env:"CONVERSATION_LOG_GLOBAL_ENABLED" envDefault:"false"`
	GlobalPath    string `env:"CONVERSATION_LOG_GLOBAL_PATH" envDefault:"./data/logs/conversations/all.ndjson"`
	QueueSize     int    `env:"CONVERSATION_LOG_QUEUE_SIZE" envDefault:"1000"`
}

// RateLimitConfig bounds websocket connection attempts per browser.
type RateLimitConfig struct {
	Connections int           `env:"RATE_LIMIT_CONNECTIONS" envDefault:"20"`
	Window      time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.MaxTurns <= 0 {
		return fmt.Errorf("MAX_TURNS must be > 0")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	switch c.Missions {
	case "llm", "pool":
	default:
		return fmt.Errorf("MISSION_SOURCE must be llm or pool, got %q", c.Missions)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("API_KEY cannot be empty")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be > 0")
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	case "postgres":
		if c.Store.DSN() == "" {
			return fmt.Errorf("DB_POSTGRES_DSN or DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be memory, sqlite or postgres, got %q", c.Store.Driver)
	}
	if c.ConversationLog.Enabled {
		if c.ConversationLog.Dir == "" {
			return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
		}
		if c.ConversationLog.GlobalEnabled && c.ConversationLog.GlobalPath == "" {
			return fmt.Errorf("CONVERSATION_LOG_GLOBAL_PATH cannot be empty")
		}
		if c.ConversationLog.QueueSize <= 0 {
			return fmt.Errorf("CONVERSATION_LOG_QUEUE_SIZE must be > 0")
		}
	}
	if c.RateLimit.Connections <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_CONNECTIONS and RATE_LIMIT_WINDOW must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}
