package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultRequestTimeout = 30 * time.Second

var errEmptyCompletion = errors.New("completion returned no choices")

// OpenAIClient calls an OpenAI-compatible chat completions endpoint. BaseURL lets
// it target routers such as OpenRouter.
type OpenAIClient struct {
	client  *openai.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewOpenAIClient creates a provider client.
func NewOpenAIClient(cfg ClientConfig, logger *slog.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY not set")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRequestTimeout
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	logger.Info("Language model client configured", "base_url", oc.BaseURL, "timeout", cfg.Timeout)
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(oc),
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// Complete runs one chat completion bounded by the client timeout.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: req.Temperature,
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("chat completion with %s: %w", req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}

	c.logger.Debug("Chat completion finished",
		"model", req.Model,
		"messages", len(req.Messages),
		"duration", time.Since(start),
	)
	return resp.Choices[0].Message.Content, nil
}
