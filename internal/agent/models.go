package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ashureev/helpdesk/internal/domain"
)

var errMalformedVerdict = errors.New("malformed referee verdict")

// ChatPersona is a PersonaModel backed by a chat completion model.
type ChatPersona struct {
	completer Completer
	model     string
}

// NewChatPersona creates a persona model.
func NewChatPersona(completer Completer, model string) *ChatPersona {
	return &ChatPersona{completer: completer, model: model}
}

// Continue asks the model for the next character line.
func (p *ChatPersona) Continue(ctx context.Context, history []domain.Entry) (string, error) {
	reply, err := p.completer.Complete(ctx, CompletionRequest{
		Model:    p.model,
		Messages: toMessages(history),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// ChatJudge is a JudgeModel backed by a chat completion model in JSON mode.
type ChatJudge struct {
	completer Completer
	model     string
}

// NewChatJudge creates a referee model.
func NewChatJudge(completer Completer, model string) *ChatJudge {
	return &ChatJudge{completer: completer, model: model}
}

type transcriptLine struct {
	Role    domain.Role `json:"role"`
	Content string      `json:"content"`
}

// Judge asks the model whether the transcript's last player message met goal.
func (j *ChatJudge) Judge(ctx context.Context, transcript []domain.Entry, goal string) (bool, error) {
	lines := make([]transcriptLine, 0, len(transcript))
	for _, e := range transcript {
		lines = append(lines, transcriptLine{Role: e.Role, Content: e.Text})
	}
	history, err := json.MarshalIndent(lines, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encode transcript: %w", err)
	}

	raw, err := j.completer.Complete(ctx, CompletionRequest{
		Model: j.model,
		Messages: []Message{
			{Role: MessageRoleSystem, Content: refereeSystemPrompt},
			{Role: MessageRoleUser, Content: refereePrompt(goal, string(history))},
		},
		JSON: true,
	})
	if err != nil {
		return false, err
	}
	return parseVerdict(raw)
}

// parseVerdict accepts only an explicit boolean "solved" field.
func parseVerdict(raw string) (bool, error) {
	var verdict struct {
		Solved *bool `json:"solved"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &verdict); err != nil {
		return false, fmt.Errorf("%w: %v", errMalformedVerdict, err)
	}
	if verdict.Solved == nil {
		return false, fmt.Errorf("%w: missing solved field", errMalformedVerdict)
	}
	return *verdict.Solved, nil
}

func toMessages(history []domain.Entry) []Message {
	msgs := make([]Message, 0, len(history))
	for _, e := range history {
		role := MessageRoleUser
		switch e.Role {
		case domain.RoleSystem:
			role = MessageRoleSystem
		case domain.RoleCharacter:
			role = MessageRoleAssistant
		}
		msgs = append(msgs, Message{Role: role, Content: e.Text})
	}
	return msgs
}
