// Package mission produces the scenarios a game session is played against.
package mission

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/helpdesk/internal/agent"
	"github.com/ashureev/helpdesk/internal/domain"
)

const (
	fallbackPersona = "a busy office worker"
	defaultTrait    = "normal"
	unknownGoal     = "unknown goal"
	personaTemp     = 1.5
)

// Generator creates a new mission for a fresh game.
type Generator interface {
	Generate(ctx context.Context) (domain.Mission, error)
}

// FallbackMission is served when the mission model cannot produce a usable scenario.
func FallbackMission(persona string) domain.Mission {
	return domain.Mission{
		Persona:          persona,
		HiddenGoal:       "wants to 'zip' a folder to email it",
		PersonalityTrait: "impatient",
		OpeningLine:      "hi, i need to send this folder, but the email machine says it's 'too big.' how do i make it smaller? and quick, i'm on a deadline.",
	}
}

// LLMGenerator invents a persona first and then a mission for it, in two model calls.
// It never fails: each step degrades to a fixed value.
type LLMGenerator struct {
	completer    agent.Completer
	personaModel string
	missionModel string
	fallback     Generator
	logger       *slog.Logger
}

// LLMOption configures an LLMGenerator.
type LLMOption func(*LLMGenerator)

// WithFallback serves missions from g when the mission step fails, keeping the
// generated persona.
func WithFallback(g Generator) LLMOption {
	return func(l *LLMGenerator) { l.fallback = g }
}

// NewLLMGenerator creates a model-backed generator.
func NewLLMGenerator(completer agent.Completer, models agent.Models, logger *slog.Logger, opts ...LLMOption) *LLMGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	g := &LLMGenerator{
		completer:    completer,
		personaModel: models.Persona,
		missionModel: models.Mission,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate implements Generator.
func (g *LLMGenerator) Generate(ctx context.Context) (domain.Mission, error) {
	persona := g.persona(ctx)

	m, err := g.mission(ctx, persona)
	if err == nil {
		g.logger.Info("Mission generated", "persona", m.Persona, "trait", m.PersonalityTrait)
		return m, nil
	}
	g.logger.Warn("Mission generation failed, using fallback", "persona", persona, "error", err)

	if g.fallback != nil {
		if fm, ferr := g.fallback.Generate(ctx); ferr == nil {
			fm.Persona = persona
			return fm, nil
		}
	}
	return FallbackMission(persona), nil
}

func (g *LLMGenerator) persona(ctx context.Context) string {
	raw, err := g.completer.Complete(ctx, agent.CompletionRequest{
		Model:       g.personaModel,
		Temperature: personaTemp,
		Messages:    []agent.Message{{Role: agent.MessageRoleUser, Content: personaPrompt}},
	})
	persona := strings.TrimSpace(raw)
	if err != nil || persona == "" {
		g.logger.Warn("Persona generation failed", "error", err)
		return fallbackPersona
	}
	return persona
}

// missionPayload accepts the legacy goal field names older prompts produced.
type missionPayload struct {
	TechnicalGoal    string `json:"technical_goal"`
	TaskGoal         string `json:"task_goal"`
	SecretGoal       string `json:"secret_goal"`
	PersonalityTrait string `json:"personality_trait"`
	FirstMessage     string `json:"first_message"`
}

func (g *LLMGenerator) mission(ctx context.Context, persona string) (domain.Mission, error) {
	raw, err := g.completer.Complete(ctx, agent.CompletionRequest{
		Model:    g.missionModel,
		Messages: []agent.Message{{Role: agent.MessageRoleUser, Content: missionPrompt(persona)}},
		JSON:     true,
	})
	if err != nil {
		return domain.Mission{}, err
	}
	return parseMission(raw, persona)
}

func parseMission(raw, persona string) (domain.Mission, error) {
	var p missionPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &p); err != nil {
		return domain.Mission{}, fmt.Errorf("decode mission: %w", err)
	}

	m := domain.Mission{
		Persona:          persona,
		HiddenGoal:       firstNonEmpty(p.TechnicalGoal, p.TaskGoal, p.SecretGoal, unknownGoal),
		PersonalityTrait: firstNonEmpty(p.PersonalityTrait, defaultTrait),
		OpeningLine:      strings.TrimSpace(p.FirstMessage),
	}
	if err := m.Validate(); err != nil {
		return domain.Mission{}, err
	}
	return m, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
