// Package ollama provides an inference gateway adapter using Ollama.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/studypipe/internal/adapters/driven/llm/httpjson"
	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
)

// Ensure Gateway implements the interface.
var _ driven.InferenceGateway = (*Gateway)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "gemma3"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Ollama gateway.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is used when Generate is called without one (default: gemma3).
	Model string

	// Timeout bounds a single call (default: 120s).
	Timeout time.Duration
}

// Gateway sends prompts to a local Ollama server.
type Gateway struct {
	api     *httpjson.Client
	baseURL string
	model   string
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// NewGateway creates a new Ollama gateway. No credentials are needed.
func NewGateway(cfg Config) *Gateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Gateway{
		api:     httpjson.New("ollama", cfg.Timeout, nil),
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Generate runs one non-streaming chat turn.
func (g *Gateway) Generate(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = g.model
	}
	var resp chatResponse
	err := g.api.Post(ctx, g.baseURL+"/api/chat", chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%w: ollama: %s", domain.ErrUnavailable, resp.Error)
	}
	return resp.Message.Content, nil
}

// ModelName returns the default model.
func (g *Gateway) ModelName() string {
	return g.model
}

// Ping lists local models via /api/tags.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.api.Get(ctx, g.baseURL+"/api/tags", nil)
}

// Close is a no-op.
func (g *Gateway) Close() error {
	return nil
}
