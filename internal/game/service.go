// Package game runs helpdesk sessions: recovery on connect and the turn loop.
package game

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/helpdesk/internal/agent"
	"github.com/ashureev/helpdesk/internal/domain"
	"github.com/ashureev/helpdesk/internal/mission"
	"github.com/ashureev/helpdesk/internal/store"
)

// DefaultMaxTurns is the number of player messages a game allows.
const DefaultMaxTurns = 5

// ErrEmptyMessage is returned for a player message with no visible text.
var ErrEmptyMessage = errors.New("empty player message")

// Player identifies the owner of a session: a browser and one of its tabs.
type Player struct {
	UserID string
	TabID  string
}

// Key is the session store key for the player.
func (p Player) Key() string {
	return p.UserID + ":" + p.TabID
}

// Service owns game sessions. Every operation on one player is serialized.
type Service struct {
	repo        store.Repository
	missions    mission.Generator
	persona     *agent.Persona
	referee     *agent.Referee
	transcripts agent.ConversationLogger
	maxTurns    int
	locks       *keyedMutex
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMaxTurns overrides DefaultMaxTurns.
func WithMaxTurns(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTurns = n
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithConversationLogger records player and persona lines.
func WithConversationLogger(l agent.ConversationLogger) Option {
	return func(s *Service) { s.transcripts = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a game service.
func NewService(repo store.Repository, missions mission.Generator, persona *agent.Persona, referee *agent.Referee, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		missions:    missions,
		persona:     persona,
		referee:     referee,
		transcripts: agent.NopConversationLogger(),
		maxTurns:    DefaultMaxTurns,
		locks:       newKeyedMutex(),
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxTurns returns the configured turn budget.
func (s *Service) MaxTurns() int { return s.maxTurns }

// Connect resumes a stored game, or asks the client what it remembers.
func (s *Service) Connect(ctx context.Context, p Player) Event {
	unlock := s.locks.Lock(p.Key())
	defer unlock()

	sess, err := s.repo.GetSession(ctx, p.Key())
	if err != nil {
		s.logger.Error("Failed to load session on connect", "session_key", p.Key(), "error", err)
		return emptyEvent(EventRequestGameState)
	}
	if !sess.Active() {
		return emptyEvent(EventRequestGameState)
	}

	first, ok := sess.Log.Opening()
	if !ok {
		first = resumeGreeting
	}
	s.logger.Info("Resuming session", "session_key", p.Key(), "turn_count", sess.TurnCount, "restored", sess.Restored)
	return Event{Name: EventResumeMission, Data: ResumeMission{
		Persona:      sess.PersonaDisplay,
		FirstMessage: first,
		CurrentTurn:  sess.TurnCount + 1,
		MaxTurns:     s.maxTurns,
	}}
}

// ClientHasGame handles the client's recovery answer: start fresh, restore from
// the snapshot, or report that the game is lost.
func (s *Service) ClientHasGame(ctx context.Context, p Player, msg ClientHasGame) Event {
	unlock := s.locks.Lock(p.Key())
	defer unlock()

	if !msg.HasGame {
		return s.startLocked(ctx, p)
	}

	existing, err := s.repo.GetSession(ctx, p.Key())
	if err != nil {
		s.logger.Error("Failed to load session for restore", "session_key", p.Key(), "error", err)
		return errorEvent(MsgSaveFailed)
	}
	if existing.Active() {
		s.logger.Info("Restore requested for live session, keeping server state", "session_key", p.Key())
		return emptyEvent(EventSessionRestored)
	}

	if msg.GameState == nil {
		s.logger.Warn("Client claims a game without state", "session_key", p.Key())
		return LostSessionEvent()
	}
	if reason := s.invalidSnapshot(*msg.GameState); reason != "" {
		s.logger.Warn("Rejecting restore snapshot", "session_key", p.Key(), "reason", reason)
		return LostSessionEvent()
	}

	gs := msg.GameState
	instruction := agent.PersonaInstruction(gs.Persona, gs.TechnicalGoal, gs.PersonalityTrait)
	sess := domain.RestoreSession(p.Key(), domain.Snapshot{
		HiddenGoal:       gs.TechnicalGoal,
		PersonalityTrait: gs.PersonalityTrait,
		TurnCount:        gs.TurnCount,
		PersonaDisplay:   gs.Persona,
	}, instruction, s.now())
	if err := s.repo.SaveSession(ctx, sess); err != nil {
		s.logger.Error("Failed to save restored session", "session_key", p.Key(), "error", err)
		return errorEvent(MsgSaveFailed)
	}

	s.logger.Info("Session restored from client", "session_key", p.Key(), "turn_count", gs.TurnCount)
	s.record(p, "inbound", "session_restored", gs.Persona, map[string]any{"turn_count": gs.TurnCount})
	return emptyEvent(EventSessionRestored)
}

func (s *Service) invalidSnapshot(gs GameState) string {
	switch {
	case strings.TrimSpace(gs.TechnicalGoal) == "":
		return "missing technical_goal"
	case gs.TurnCount < 0 || gs.TurnCount >= s.maxTurns:
		return "turn_count out of range"
	}
	return ""
}

// Reset discards the player's game and starts a new one.
func (s *Service) Reset(ctx context.Context, p Player) Event {
	unlock := s.locks.Lock(p.Key())
	defer unlock()

	if err := s.repo.DeleteSession(ctx, p.Key()); err != nil {
		s.logger.Error("Failed to delete session on reset", "session_key", p.Key(), "error", err)
		return errorEvent(MsgSaveFailed)
	}
	return s.startLocked(ctx, p)
}

func (s *Service) startLocked(ctx context.Context, p Player) Event {
	m, err := s.missions.Generate(ctx)
	if err == nil {
		err = m.Validate()
	}
	if err != nil {
		s.logger.Error("Failed to generate mission", "session_key", p.Key(), "error", err)
		return errorEvent(MsgMissionFailed)
	}

	instruction := agent.PersonaInstruction(m.Persona, m.HiddenGoal, m.PersonalityTrait)
	sess := domain.NewSession(p.Key(), m, instruction, s.now())
	if err := s.repo.SaveSession(ctx, sess); err != nil {
		s.logger.Error("Failed to save new session", "session_key", p.Key(), "error", err)
		return errorEvent(MsgSaveFailed)
	}

	s.logger.Info("New game started", "session_key", p.Key(), "persona", m.Persona)
	s.record(p, "outbound", "mission_started", m.OpeningLine, map[string]any{
		"persona": sess.PersonaDisplay,
		"goal":    m.HiddenGoal,
	})
	return Event{Name: EventInitialMission, Data: InitialMission{
		Persona:          sess.PersonaDisplay,
		TechnicalGoal:    m.HiddenGoal,
		PersonalityTrait: m.PersonalityTrait,
		FirstMessage:     m.OpeningLine,
		MaxTurns:         s.maxTurns,
	}}
}

// HandlePlayerMessage runs one turn. The referee is consulted before the turn
// budget, so a winning reply on the last turn still wins.
// A blank message on a live game returns ErrEmptyMessage and consumes nothing.
func (s *Service) HandlePlayerMessage(ctx context.Context, p Player, text string) (Event, error) {
	unlock := s.locks.Lock(p.Key())
	defer unlock()

	sess, err := s.repo.GetSession(ctx, p.Key())
	if err != nil {
		s.logger.Error("Failed to load session for turn", "session_key", p.Key(), "error", err)
		return errorEvent(MsgSaveFailed), nil
	}
	if !sess.Active() {
		s.logger.Warn("Player message without game state", "session_key", p.Key())
		return errorEvent(MsgNoGameState), nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Event{}, ErrEmptyMessage
	}
	s.record(p, "inbound", "player_message", text, map[string]any{"turn_count": sess.TurnCount})

	playerEntry := domain.Entry{Role: domain.RolePlayer, Text: text}
	transcript := append(sess.Log.RefereeView(), playerEntry)
	history := append(sess.Log.ResponderView(), playerEntry)

	if s.referee.CheckSolved(ctx, transcript, sess.Mission.HiddenGoal) {
		score := sess.TurnCount + 1
		return s.finishLocked(ctx, p, sess, history, domain.OutcomeWin, &score), nil
	}

	if sess.TurnCount+1 >= s.maxTurns {
		return s.finishLocked(ctx, p, sess, history, domain.OutcomeLose, nil), nil
	}

	reply, ok := s.persona.Reply(ctx, sess.Log.ResponderView(), text)
	sess.Log.AppendTurn(text, reply, !ok)
	sess.TurnCount++
	sess.UpdatedAt = s.now()
	if err := s.repo.SaveSession(ctx, sess); err != nil {
		s.logger.Error("Failed to save turn", "session_key", p.Key(), "turn_count", sess.TurnCount, "error", err)
		return errorEvent(MsgSaveFailed), nil
	}

	s.logger.Debug("Turn completed", "session_key", p.Key(), "turn_count", sess.TurnCount, "fallback", !ok)
	s.record(p, "outbound", "persona_reply", reply, map[string]any{"turn_count": sess.TurnCount, "fallback": !ok})
	return Event{Name: EventNewBotMessage, Data: NewBotMessage{
		Message:  reply,
		Turn:     sess.TurnCount + 1,
		MaxTurns: s.maxTurns,
	}}, nil
}

func (s *Service) finishLocked(ctx context.Context, p Player, sess *domain.Session, history []domain.Entry, outcome domain.Outcome, score *int) Event {
	closing := s.persona.ClosingReply(ctx, history, outcome)

	if err := s.repo.DeleteSession(ctx, p.Key()); err != nil {
		s.logger.Error("Failed to delete finished session", "session_key", p.Key(), "error", err)
	}

	s.logger.Info("Game over", "session_key", p.Key(), "outcome", outcome.String(), "turn_count", sess.TurnCount)
	s.record(p, "outbound", "game_over", closing, map[string]any{"outcome": outcome.String()})
	return Event{Name: EventGameOver, Data: GameOver{
		Win:     outcome == domain.OutcomeWin,
		Message: closing,
		Score:   score,
	}}
}

func (s *Service) record(p Player, direction, eventType, content string, meta map[string]any) {
	s.transcripts.Log(agent.ConversationLogEvent{
		UserID:     p.UserID,
		SessionID:  p.TabID,
		Channel:    "game",
		Direction:  direction,
		EventType:  eventType,
		ContentRaw: content,
		Meta:       meta,
	})
}
