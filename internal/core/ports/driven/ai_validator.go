package driven

import "github.com/custodia-labs/studypipe/internal/core/domain"

// AIConfigValidator validates external capability configurations.
// Implementations verify that configurations are valid by testing connectivity
// to the underlying services.
type AIConfigValidator interface {
	// ValidateLLM validates an LLM configuration by pinging the provider.
	ValidateLLM(config *domain.LLMSettings) error
}
