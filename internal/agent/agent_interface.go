package agent

import (
	"context"

	"github.com/ashureev/helpdesk/internal/domain"
)

// Completer is the raw chat-completion boundary to a language model provider.
// It is implemented by OpenAIClient.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// PersonaModel produces the next in-character line for a responder transcript.
type PersonaModel interface {
	Continue(ctx context.Context, history []domain.Entry) (string, error)
}

// JudgeModel decides whether the last player entry of a transcript satisfies goal.
type JudgeModel interface {
	Judge(ctx context.Context, transcript []domain.Entry, goal string) (bool, error)
}

// Ensure the provider-backed types implement the capability interfaces.
var (
	_ Completer    = (*OpenAIClient)(nil)
	_ PersonaModel = (*ChatPersona)(nil)
	_ JudgeModel   = (*ChatJudge)(nil)
)
