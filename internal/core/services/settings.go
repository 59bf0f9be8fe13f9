package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
	"github.com/custodia-labs/studypipe/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMRate          = "llm.rate_per_second"
	keyOCRProvider      = "ocr.provider"
	keyOCRTesseractPath = "ocr.tesseract_path"
	keyOCRLanguage      = "ocr.language"
	keyOCRCredentials   = "ocr.credentials_file"
	keyStoreProvider    = "store.provider"
	keyStorePath        = "store.path"
	keyStoreURI         = "store.uri"
	keyStoreDatabase    = "store.database"
	keyArtifactRoot     = "pipeline.artifact_root"
	keyDPI              = "pipeline.dpi"
	keyQuizCount        = "pipeline.quiz_count"
	keyFlashcardCount   = "pipeline.flashcard_count"
	keyClassifyWorkers  = "pipeline.classify_workers"
	keyStageTimeout     = "pipeline.stage_timeout"
	keyCallTimeout      = "pipeline.call_timeout"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings. Unset or unrecognised values
// fall back to defaults.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	llmProvider := s.getAIProvider(defaults.LLM.Provider)
	llmModel := defaults.LLM.Model
	if llmProvider != defaults.LLM.Provider {
		llmModel = domain.DefaultLLMModels()[llmProvider]
	}
	llmBaseURL := s.configStore.GetString(keyLLMBaseURL)
	if llmBaseURL == "" && llmProvider.IsLocal() {
		llmBaseURL = defaults.LLM.BaseURL
	}

	settings := &domain.Settings{
		LLM: domain.LLMSettings{
			Provider:      llmProvider,
			Model:         s.getString(keyLLMModel, llmModel),
			BaseURL:       llmBaseURL,
			APIKey:        s.configStore.GetString(keyLLMAPIKey),
			RatePerSecond: s.getFloat(keyLLMRate, defaults.LLM.RatePerSecond),
		},
		OCR: domain.OCRSettings{
			Provider:        s.getOCRProvider(defaults.OCR.Provider),
			TesseractPath:   s.configStore.GetString(keyOCRTesseractPath),
			Language:        s.getString(keyOCRLanguage, defaults.OCR.Language),
			CredentialsFile: s.configStore.GetString(keyOCRCredentials),
		},
		Store: domain.StoreSettings{
			Provider: s.getStoreProvider(defaults.Store.Provider),
			Path:     s.configStore.GetString(keyStorePath),
			URI:      s.configStore.GetString(keyStoreURI),
			Database: s.getString(keyStoreDatabase, defaults.Store.Database),
		},
		Pipeline: domain.PipelineSettings{
			ArtifactRoot:    s.getString(keyArtifactRoot, defaults.Pipeline.ArtifactRoot),
			DPI:             s.getInt(keyDPI, defaults.Pipeline.DPI),
			QuizCount:       s.getInt(keyQuizCount, defaults.Pipeline.QuizCount),
			FlashcardCount:  s.getInt(keyFlashcardCount, defaults.Pipeline.FlashcardCount),
			ClassifyWorkers: s.getInt(keyClassifyWorkers, defaults.Pipeline.ClassifyWorkers),
			StageTimeout:    s.getDuration(keyStageTimeout, defaults.Pipeline.StageTimeout),
			CallTimeout:     s.getDuration(keyCallTimeout, defaults.Pipeline.CallTimeout),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.Settings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMRate, settings.LLM.RatePerSecond},
		{keyOCRProvider, settings.OCR.Provider.String()},
		{keyOCRTesseractPath, settings.OCR.TesseractPath},
		{keyOCRLanguage, settings.OCR.Language},
		{keyOCRCredentials, settings.OCR.CredentialsFile},
		{keyStoreProvider, settings.Store.Provider.String()},
		{keyStorePath, settings.Store.Path},
		{keyStoreURI, settings.Store.URI},
		{keyStoreDatabase, settings.Store.Database},
		{keyArtifactRoot, settings.Pipeline.ArtifactRoot},
		{keyDPI, settings.Pipeline.DPI},
		{keyQuizCount, settings.Pipeline.QuizCount},
		{keyFlashcardCount, settings.Pipeline.FlashcardCount},
		{keyClassifyWorkers, settings.Pipeline.ClassifyWorkers},
		{keyStageTimeout, settings.Pipeline.StageTimeout.String()},
		{keyCallTimeout, settings.Pipeline.CallTimeout.String()},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Keys supplied through the environment should not land on disk unless set explicitly.
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyLLMAPIKey, err)
		}
	}

	return nil
}

// SetLLMProvider configures the inference gateway provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInput, provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = domain.DefaultSettings().LLM.BaseURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Set stores a single raw key. Known keys are checked against their type
// and numeric keys are stored as numbers.
func (s *SettingsService) Set(key, value string) error {
	var stored any = value
	switch key {
	case keyLLMProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInput, value)
		}
	case keyOCRProvider:
		if !domain.OCRProvider(value).IsValid() {
			return fmt.Errorf("%w: invalid OCR provider: %s", domain.ErrInput, value)
		}
	case keyStoreProvider:
		if !domain.StoreProvider(value).IsValid() {
			return fmt.Errorf("%w: invalid store provider: %s", domain.ErrInput, value)
		}
	case keyStageTimeout, keyCallTimeout:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%w: %s must be a duration: %w", domain.ErrInput, key, err)
		}
	case keyDPI, keyQuizCount, keyFlashcardCount, keyClassifyWorkers:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInput, key)
		}
		stored = n
	case keyLLMRate:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInput, key)
		}
		stored = f
	}
	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Validate checks that current settings can build a working pipeline.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %q is not configured", domain.ErrInput, settings.LLM.Provider)
	}

	if settings.Store.Provider == domain.StoreProviderMongo && settings.Store.URI == "" {
		return fmt.Errorf("%w: store provider mongo requires %s", domain.ErrInput, keyStoreURI)
	}

	if settings.Pipeline.ArtifactRoot == "" {
		return fmt.Errorf("%w: %s must not be empty", domain.ErrInput, keyArtifactRoot)
	}

	if settings.Pipeline.QuizCount < 1 || settings.Pipeline.FlashcardCount < 1 {
		return fmt.Errorf("%w: quiz and flashcard counts must be positive", domain.ErrInput)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getAIProvider(defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(keyLLMProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getOCRProvider(defaultVal domain.OCRProvider) domain.OCRProvider {
	provider := domain.OCRProvider(s.configStore.GetString(keyOCRProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getStoreProvider(defaultVal domain.StoreProvider) domain.StoreProvider {
	provider := domain.StoreProvider(s.configStore.GetString(keyStoreProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
