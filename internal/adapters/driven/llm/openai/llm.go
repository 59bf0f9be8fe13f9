// Package openai provides an inference gateway adapter for the OpenAI chat
// completions API and servers that mimic it.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/studypipe/internal/adapters/driven/llm/httpjson"
	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
)

// Ensure Gateway implements the interface.
var _ driven.InferenceGateway = (*Gateway)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the OpenAI gateway.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is used when Generate is called without one (default: gpt-4o-mini).
	Model string

	// Timeout bounds a single call (default: 120s).
	Timeout time.Duration
}

// Gateway sends prompts to a chat completions endpoint.
type Gateway struct {
	api     *httpjson.Client
	baseURL string
	model   string
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewGateway creates a new OpenAI gateway.
func NewGateway(cfg Config) (*Gateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai: API key is required", domain.ErrInput)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)
	return &Gateway{
		api:     httpjson.New("openai", cfg.Timeout, header),
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}, nil
}

// Generate sends prompt as one user message and returns the first choice.
func (g *Gateway) Generate(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = g.model
	}
	var resp completionResponse
	err := g.api.Post(ctx, g.baseURL+"/chat/completions", completionRequest{
		Model:    model,
		Messages: []message{{Role: "user", Content: prompt}},
	}, &resp)
	if err != nil {
		return "", err
	}
	switch {
	case resp.Error != nil:
		return "", fmt.Errorf("%w: openai: %s", domain.ErrUnavailable, resp.Error.Message)
	case len(resp.Choices) == 0:
		return "", fmt.Errorf("%w: openai: no choices returned", domain.ErrUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the default model.
func (g *Gateway) ModelName() string {
	return g.model
}

// Ping lists models, which checks the key without running inference.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.api.Get(ctx, g.baseURL+"/models", nil)
}

// Close is a no-op.
func (g *Gateway) Close() error {
	return nil
}
