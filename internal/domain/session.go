package domain

import (
	"time"
)

// Status is the lifecycle state of a game session.
type Status string

const (
	StatusActive  Status = "active"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
	StatusExpired Status = "expired"
)

// Outcome is the terminal result a closing line is written for.
type Outcome int

const (
	OutcomeWin Outcome = iota
	OutcomeLose
)

func (o Outcome) String() string {
	if o == OutcomeWin {
		return "win"
	}
	return "lose"
}

// Session holds the server-side state of one game, keyed by connection identity.
type Session struct {
	ID             string
	Mission        Mission
	PersonaDisplay string
	TurnCount      int
	Log            ConversationLog
	Status         Status
	Restored       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewSession builds a fresh active session for a generated mission.
func NewSession(id string, m Mission, instruction string, now time.Time) *Session {
	return &Session{
		ID:             id,
		Mission:        m,
		PersonaDisplay: m.PersonaDisplay(),
		Log:            NewConversationLog(instruction, m.OpeningLine),
		Status:         StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Snapshot is the last game state a client remembers. It is all that survives when
// the server loses a session.
type Snapshot struct {
	HiddenGoal       string
	PersonalityTrait string
	TurnCount        int
	PersonaDisplay   string
}

// RestoreSession rebuilds a session from a client snapshot. Prior turn text is not
// recoverable: the log holds only the persona instruction and the referee view is empty.
func RestoreSession(id string, snap Snapshot, instruction string, now time.Time) *Session {
	return &Session{
		ID: id,
		Mission: Mission{
			Persona:          snap.PersonaDisplay,
			HiddenGoal:       snap.HiddenGoal,
			PersonalityTrait: snap.PersonalityTrait,
		},
		PersonaDisplay: snap.PersonaDisplay,
		TurnCount:      snap.TurnCount,
		Log:            NewConversationLog(instruction, ""),
		Status:         StatusActive,
		Restored:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Active reports whether the session still accepts player messages.
func (s *Session) Active() bool {
	return s != nil && s.Status == StatusActive
}

// Clone returns a deep copy so callers never share a log with the store.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Log = s.Log.Clone()
	return &c
}
