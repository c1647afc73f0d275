// Package agent implements the persona and referee roles and the language model
// calls behind them.
package agent

import (
	"time"
)

// Chat message roles understood by the provider.
const (
	MessageRoleSystem    = "system"
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// Message is one provider-level chat message.
type Message struct {
	Role    string
	Content string
}

// CompletionRequest describes one chat completion call.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float32
	JSON        bool
}

// ClientConfig holds provider connection settings.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Models names the model used for each call site.
type Models struct {
	Responder string
	Referee   string
	Persona   string
	Mission   string
}

// DefaultModels returns the models the game was tuned with.
func DefaultModels() Models {
	return Models{
		Responder: "gpt-4o-mini",
		Referee:   "gpt-4o-mini",
		Persona:   "x-ai/grok-4-fast",
		Mission:   "anthropic/claude-haiku-4.5",
	}
}
