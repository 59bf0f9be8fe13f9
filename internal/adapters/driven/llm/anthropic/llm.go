// Package anthropic provides an inference gateway adapter using the Anthropic
// messages API.
package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/studypipe/internal/adapters/driven/llm/httpjson"
	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
)

// Ensure Gateway implements the interface.
var _ driven.InferenceGateway = (*Gateway)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 4096

	anthropicVersion = "2023-06-01"
)

// Config holds configuration for the Anthropic gateway.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is used when Generate is called without one.
	Model string

	// MaxTokens caps each reply (default: 4096).
	MaxTokens int

	// Timeout bounds a single call (default: 120s).
	Timeout time.Duration
}

// Gateway sends prompts to the messages endpoint.
type Gateway struct {
	api       *httpjson.Client
	baseURL   string
	model     string
	maxTokens int
}

type messagesRequest struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// NewGateway creates a new Anthropic gateway.
func NewGateway(cfg Config) (*Gateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic: API key is required", domain.ErrInput)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	header := http.Header{}
	header.Set("x-api-key", cfg.APIKey)
	header.Set("anthropic-version", anthropicVersion)
	return &Gateway{
		api:       httpjson.New("anthropic", cfg.Timeout, header),
		baseURL:   cfg.BaseURL,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Generate sends prompt as one user message. Text blocks of the reply are
// joined; other block types are dropped.
func (g *Gateway) Generate(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = g.model
	}
	var resp messagesResponse
	err := g.api.Post(ctx, g.baseURL+"/v1/messages", messagesRequest{
		Model:     model,
		Messages:  []message{{Role: "user", Content: prompt}},
		MaxTokens: g.maxTokens,
	}, &resp)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("%w: anthropic: reply has no text (stop reason %q)", domain.ErrUnavailable, resp.StopReason)
	}
	return text.String(), nil
}

// ModelName returns the default model.
func (g *Gateway) ModelName() string {
	return g.model
}

// Ping lists models, which checks the key without running inference.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.api.Get(ctx, g.baseURL+"/v1/models", nil)
}

// Close is a no-op.
func (g *Gateway) Close() error {
	return nil
}
