// Package gemini provides an inference gateway adapter using the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/custodia-labs/studypipe/internal/adapters/driven/llm/httpjson"
	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
)

// Ensure Gateway implements the interface.
var _ driven.InferenceGateway = (*Gateway)(nil)

// Default configuration values.
const (
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Gemini gateway.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string

	// Model is used when Generate is called without one (default: gemini-2.5-flash).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Gateway sends prompts through the genai SDK.
type Gateway struct {
	client *genai.Client
	model  string
}

// NewGateway creates a new Gemini gateway.
func NewGateway(ctx context.Context, cfg Config) (*Gateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini: API key is required", domain.ErrInput)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: failed to initialize client: %w", domain.ErrUnavailable, err)
	}
	return &Gateway{client: client, model: cfg.Model}, nil
}

// Generate sends prompt as a single user turn and returns the response text.
func (g *Gateway) Generate(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = g.model
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", httpjson.CallError("gemini", "generate", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: gemini: empty response", domain.ErrUnavailable)
	}
	return resp.Text(), nil
}

// ModelName returns the default model.
func (g *Gateway) ModelName() string {
	return g.model
}

// Ping fetches the configured model's metadata.
func (g *Gateway) Ping(ctx context.Context) error {
	if _, err := g.client.Models.Get(ctx, g.model, nil); err != nil {
		return httpjson.CallError("gemini", "ping", err)
	}
	return nil
}

// Close releases resources.
func (g *Gateway) Close() error {
	// genai.Client doesn't require explicit Close
	return nil
}
