package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ashureev/helpdesk/internal/agent"
	"github.com/ashureev/helpdesk/internal/config"
	"github.com/ashureev/helpdesk/internal/game"
	"github.com/ashureev/helpdesk/internal/logging"
	"github.com/ashureev/helpdesk/internal/mission"
	"github.com/ashureev/helpdesk/internal/store"
)

// app holds the dependencies shared by serve and play.
type app struct {
	cfg         *config.Config
	repo        store.Repository
	svc         *game.Service
	transcripts agent.ConversationLogger
}

func (a *app) Close() {
	if err := a.transcripts.Close(); err != nil {
		slog.Error("Failed to close conversation logger", "error", err)
	}
	if err := a.repo.Close(); err != nil {
		slog.Error("Failed to close session store", "error", err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logging.Init(level, cfg.LogFormat)
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	repo, err := store.Open(ctx, store.Options{
		Driver:      store.Driver(cfg.Store.Driver),
		SQLitePath:  cfg.Store.DBPath,
		PostgresDSN: cfg.Store.DSN(),
	})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	client, err := agent.NewOpenAIClient(agent.ClientConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLM.Timeout,
	}, logging.New("llm"))
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	missions, err := newMissionSource(cfg, client)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	transcripts, err := agent.NewConversationLogger(agent.ConversationLogConfig{
		Enabled:       cfg.ConversationLog.Enabled,
		Dir:           cfg.ConversationLog.Dir,
		GlobalEnabled: cfg.ConversationLog.GlobalEnabled,
		GlobalPath:    cfg.ConversationLog.GlobalPath,
		QueueSize:     cfg.ConversationLog.QueueSize,
	}, logging.New("transcripts"))
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("initialize conversation logger: %w", err)
	}

	roles := logging.New("agent")
	svc := game.NewService(repo, missions,
		agent.NewPersona(agent.NewChatPersona(client, cfg.LLM.ResponderModel), roles),
		agent.NewReferee(agent.NewChatJudge(client, cfg.LLM.RefereeModel), roles),
		game.WithMaxTurns(cfg.MaxTurns),
		game.WithLogger(logging.New("game")),
		game.WithConversationLogger(transcripts),
	)
	return &app{cfg: cfg, repo: repo, svc: svc, transcripts: transcripts}, nil
}

func newMissionSource(cfg *config.Config, client agent.Completer) (mission.Generator, error) {
	pool, err := mission.NewPoolGenerator()
	if err != nil {
		return nil, err
	}
	if cfg.Missions == "pool" {
		return pool, nil
	}
	return mission.NewLLMGenerator(client, agent.Models{
		Persona: cfg.LLM.PersonaModel,
		Mission: cfg.LLM.MissionModel,
	}, logging.New("mission"), mission.WithFallback(pool)), nil
}
