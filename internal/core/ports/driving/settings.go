package driving

import "github.com/custodia-labs/studypipe/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.Settings, error)

	// Save persists application settings.
	Save(settings *domain.Settings) error

	// SetLLMProvider configures the inference gateway provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Set stores a single configuration key.
	Set(key, value string) error

	// Validate checks that current settings can build a working pipeline.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings

	// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
	ValidateLLMConfig() error
}
