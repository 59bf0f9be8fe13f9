// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// InferenceGateway sends one prompt to a generative text oracle and returns its reply.
// Calls are synchronous and bounded by the caller's context deadline.
// Implementations never retry.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI
//   - Anthropic
//   - Gemini
type InferenceGateway interface {
	// Generate produces text from a prompt using the named model.
	// An empty model selects the gateway's configured default.
	// Failures wrap domain.ErrUnavailable or domain.ErrTimeout.
	Generate(ctx context.Context, prompt, model string) (string, error)

	// ModelName returns the default model.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
