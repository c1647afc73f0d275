package domain

// Role identifies who produced a conversation entry.
type Role string

const (
	// RoleSystem marks the responder's persona instruction.
	RoleSystem Role = "system"
	// RolePlayer marks a message typed by the player.
	RolePlayer Role = "player"
	// RoleCharacter marks a line spoken by the persona.
	RoleCharacter Role = "character"
)

// Entry is a single turn entry in a conversation log.
type Entry struct {
	Role     Role   `json:"role"`
	Text     string `json:"text"`
	Fallback bool   `json:"fallback,omitempty"`
}

// ConversationLog is the append-only transcript of one session.
//
// The responder and the referee read different projections of the same entries,
// so the two views cannot drift apart.
type ConversationLog struct {
	Entries []Entry `json:"entries"`
}

// NewConversationLog seeds a log with the persona instruction and, when present,
// the persona's opening line.
func NewConversationLog(instruction, opening string) ConversationLog {
	log := ConversationLog{}
	if instruction != "" {
		log.Entries = append(log.Entries, Entry{Role: RoleSystem, Text: instruction})
	}
	if opening != "" {
		log.Entries = append(log.Entries, Entry{Role: RoleCharacter, Text: opening})
	}
	return log
}

// AppendTurn records a player message together with the character reply it produced.
// A fallback reply is kept for the referee but hidden from the responder.
func (l *ConversationLog) AppendTurn(player, reply string, fallback bool) {
	l.Entries = append(l.Entries,
		Entry{Role: RolePlayer, Text: player},
		Entry{Role: RoleCharacter, Text: reply, Fallback: fallback},
	)
}

// ResponderView returns the entries the in-character responder is prompted with.
func (l ConversationLog) ResponderView() []Entry {
	view := make([]Entry, 0, len(l.Entries))
	for _, e := range l.Entries {
		if e.Role == RoleCharacter && e.Fallback {
			continue
		}
		view = append(view, e)
	}
	return view
}

// RefereeView returns the transcript the referee judges, without the instruction.
func (l ConversationLog) RefereeView() []Entry {
	view := make([]Entry, 0, len(l.Entries))
	for _, e := range l.Entries {
		if e.Role == RoleSystem {
			continue
		}
		view = append(view, e)
	}
	return view
}

// Opening returns the first character line, if any.
func (l ConversationLog) Opening() (string, bool) {
	for _, e := range l.Entries {
		if e.Role == RoleCharacter {
			return e.Text, true
		}
	}
	return "", false
}

// Clone returns a deep copy of the log.
func (l ConversationLog) Clone() ConversationLog {
	if l.Entries == nil {
		return ConversationLog{}
	}
	entries := make([]Entry, len(l.Entries))
	copy(entries, l.Entries)
	return ConversationLog{Entries: entries}
}
