package game

// Client to server event names.
const (
	EventClientHasGame = "client_has_game"
	EventPlayerMessage = "player_message"
	EventResetGame     = "reset_game"
	EventPing          = "ping"
)

// Server to client event names.
const (
	EventResumeMission     = "resume_mission"
	EventSessionRestored   = "session_restored"
	EventServerLostSession = "server_lost_session"
	EventInitialMission    = "initial_mission"
	EventNewBotMessage     = "new_bot_message"
	EventGameOver          = "game_over"
	EventRequestGameState  = "request_game_state"
	EventPong              = "pong"
)

// Error messages carried by a failed game_over.
const (
	MsgNoGameState   = "error: no game state found. pls refresh."
	MsgSaveFailed    = "error: could not save game state. pls refresh."
	MsgMissionFailed = "error: could not start a new game. pls refresh."
	resumeGreeting   = "Welcome back!"
)

// Event is one outbound frame.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Empty is the payload of events that carry no data.
type Empty struct{}

// ResumeMission tells a reconnecting client its game is still live.
type ResumeMission struct {
	Persona      string `json:"persona"`
	FirstMessage string `json:"first_message"`
	CurrentTurn  int    `json:"current_turn"`
	MaxTurns     int    `json:"max_turns"`
}

// InitialMission starts a fresh game. TechnicalGoal is included so the client can
// send it back in a restore snapshot; it is not meant for display.
type InitialMission struct {
	Persona          string `json:"persona"`
	TechnicalGoal    string `json:"technical_goal"`
	PersonalityTrait string `json:"personality_trait"`
	FirstMessage     string `json:"first_message"`
	MaxTurns         int    `json:"max_turns"`
}

// NewBotMessage carries the persona's reply to a non-terminal turn.
type NewBotMessage struct {
	Message  string `json:"message"`
	Turn     int    `json:"turn"`
	MaxTurns int    `json:"max_turns"`
}

// GameOver ends a game. Score is only set on a win.
type GameOver struct {
	Win     bool   `json:"win"`
	Message string `json:"message"`
	Score   *int   `json:"score,omitempty"`
}

// ClientHasGame is the client's answer to request_game_state.
type ClientHasGame struct {
	HasGame   bool       `json:"hasGame"`
	GameState *GameState `json:"gameState,omitempty"`
}

// GameState is the snapshot a client keeps of its current game.
type GameState struct {
	TechnicalGoal    string `json:"technical_goal"`
	PersonalityTrait string `json:"personality_trait"`
	TurnCount        int    `json:"turn_count"`
	Persona          string `json:"persona"`
}

// PlayerMessage is a chat line typed by the player.
type PlayerMessage struct {
	Message string `json:"message"`
}

func emptyEvent(name string) Event { return Event{Name: name, Data: Empty{}} }

// LostSessionEvent is sent when a restore cannot be performed.
func LostSessionEvent() Event { return emptyEvent(EventServerLostSession) }

// PongEvent answers a client ping.
func PongEvent() Event { return emptyEvent(EventPong) }

func errorEvent(msg string) Event {
	return Event{Name: EventGameOver, Data: GameOver{Win: false, Message: msg}}
}
