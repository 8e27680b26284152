// Package openai implements ports.Generator over the chat completions API.
package openai

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	backend "github.com/sashabaranov/go-openai"

	"github.com/aretw0/srag/pkg/domain"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// Generator sends a single user prompt and returns the first choice.
type Generator struct {
	client      *backend.Client
	model       string
	temperature float32
	system      string
	logger      *slog.Logger
}

type settings struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the Generator.
type Option func(*Generator, *settings)

// WithModel selects the model.
func WithModel(model string) Option {
	return func(g *Generator, _ *settings) {
		if model != "" {
			g.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(g *Generator, _ *settings) { g.temperature = t }
}

// WithSystemPrompt prepends a system message to every request.
func WithSystemPrompt(p string) Option {
	return func(g *Generator, _ *settings) { g.system = p }
}

// WithBaseURL points the client at a compatible endpoint.
func WithBaseURL(u string) Option {
	return func(_ *Generator, s *settings) { s.baseURL = u }
}

// WithHTTPClient replaces the transport.
func WithHTTPClient(c *http.Client) Option {
	return func(_ *Generator, s *settings) { s.httpClient = c }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator, _ *settings) { g.logger = logger }
}

// New creates a Generator. It fails with domain.ErrMissingAPIKey when
// apiKey is blank.
func New(apiKey string, opts ...Option) (*Generator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai: %w", domain.ErrMissingAPIKey)
	}

	g := &Generator{model: DefaultModel}
	var s settings
	for _, opt := range opts {
		opt(g, &s)
	}
	if g.logger == nil {
		g.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cfg := backend.DefaultConfig(apiKey)
	if s.baseURL != "" {
		cfg.BaseURL = strings.TrimRight(s.baseURL, "/")
	}
	if s.httpClient != nil {
		cfg.HTTPClient = s.httpClient
	}
	g.client = backend.NewClientWithConfig(cfg)
	return g, nil
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.model
}

// Generate implements ports.Generator.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	msgs := make([]backend.ChatCompletionMessage, 0, 2)
	if g.system != "" {
		msgs = append(msgs, backend.ChatCompletionMessage{Role: backend.ChatMessageRoleSystem, Content: g.system})
	}
	msgs = append(msgs, backend.ChatCompletionMessage{Role: backend.ChatMessageRoleUser, Content: prompt})

	g.logger.Debug("generating text", "model", g.model, "prompt_len", len(prompt))
	resp, err := g.client.CreateChatCompletion(ctx, backend.ChatCompletionRequest{
		Model:       g.model,
		Messages:    msgs,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	g.logger.Debug("generation finished", "finish_reason", resp.Choices[0].FinishReason)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
