package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studypipe/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/studypipe/internal/core/domain"
)

type stubValidator struct {
	got *domain.LLMSettings
	err error
}

func (v *stubValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	v.got = cfg
	return v.err
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := service.Get()
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("llm.provider", "anthropic")
	_ = store.Set("llm.api_key", "sk-test")
	_ = store.Set("llm.rate_per_second", 1.5)
	_ = store.Set("ocr.provider", "vision")
	_ = store.Set("ocr.credentials_file", "/etc/sa.json")
	_ = store.Set("store.provider", "mongo")
	_ = store.Set("store.uri", "mongodb://localhost:27017")
	_ = store.Set("pipeline.artifact_root", "/srv/data")
	_ = store.Set("pipeline.quiz_count", 5)
	_ = store.Set("pipeline.classify_workers", 8)
	_ = store.Set("pipeline.stage_timeout", "2m")

	service := NewSettingsService(store, nil)
	settings, err := service.Get()
	require.NoError(t, err)

	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderAnthropic], settings.LLM.Model)
	assert.Empty(t, settings.LLM.BaseURL)
	assert.Equal(t, "sk-test", settings.LLM.APIKey)
	assert.InDelta(t, 1.5, settings.LLM.RatePerSecond, 0.0001)
	assert.Equal(t, domain.OCRProviderVision, settings.OCR.Provider)
	assert.Equal(t, "/etc/sa.json", settings.OCR.CredentialsFile)
	assert.Equal(t, domain.StoreProviderMongo, settings.Store.Provider)
	assert.Equal(t, "mongodb://localhost:27017", settings.Store.URI)
	assert.Equal(t, "studypipe", settings.Store.Database)
	assert.Equal(t, "/srv/data", settings.Pipeline.ArtifactRoot)
	assert.Equal(t, 5, settings.Pipeline.QuizCount)
	assert.Equal(t, 10, settings.Pipeline.FlashcardCount)
	assert.Equal(t, 8, settings.Pipeline.ClassifyWorkers)
	assert.Equal(t, 2*time.Minute, settings.Pipeline.StageTimeout)
	assert.Equal(t, 120*time.Second, settings.Pipeline.CallTimeout)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("llm.provider", "mystery")
	_ = store.Set("ocr.provider", "eyes")
	_ = store.Set("store.provider", "floppy")
	_ = store.Set("pipeline.dpi", -1)
	_ = store.Set("pipeline.call_timeout", "whenever")

	service := NewSettingsService(store, nil)
	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultSettings()
	assert.Equal(t, defaults.LLM.Provider, settings.LLM.Provider)
	assert.Equal(t, defaults.OCR.Provider, settings.OCR.Provider)
	assert.Equal(t, defaults.Store.Provider, settings.Store.Provider)
	assert.Equal(t, defaults.Pipeline.DPI, settings.Pipeline.DPI)
	assert.Equal(t, defaults.Pipeline.CallTimeout, settings.Pipeline.CallTimeout)
}

func TestSettingsService_SaveThenGet(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	settings := domain.DefaultSettings()
	settings.LLM.Provider = domain.AIProviderGemini
	settings.LLM.Model = "gemini-2.5-pro"
	settings.LLM.APIKey = "g-key"
	settings.LLM.BaseURL = ""
	settings.Pipeline.QuizCount = 20
	settings.Pipeline.StageTimeout = 10 * time.Minute
	require.NoError(t, service.Save(&settings))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *got)
}

func TestSettingsService_Save_SkipsEmptyAPIKey(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	settings := domain.DefaultSettings()
	require.NoError(t, service.Save(&settings))

	saved := store.Snapshot()
	assert.NotContains(t, saved, "llm.api_key")
	assert.Equal(t, "5m0s", saved["pipeline.stage_timeout"])
	assert.Equal(t, "ollama", saved["llm.provider"])
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	t.Run("cloud provider clears base url", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)

		require.NoError(t, service.SetLLMProvider(domain.AIProviderOpenAI, "", "sk-1"))

		got, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderOpenAI, got.LLM.Provider)
		assert.Equal(t, "gpt-4o-mini", got.LLM.Model)
		assert.Empty(t, got.LLM.BaseURL)
		assert.Equal(t, "sk-1", got.LLM.APIKey)
	})

	t.Run("local provider keeps a base url", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)

		require.NoError(t, service.SetLLMProvider(domain.AIProviderOllama, "llama3", ""))

		got, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, "llama3", got.LLM.Model)
		assert.Equal(t, "http://localhost:11434", got.LLM.BaseURL)
	})

	t.Run("missing api key", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)

		err := service.SetLLMProvider(domain.AIProviderAnthropic, "", "")
		assert.ErrorIs(t, err, domain.ErrInput)
	})

	t.Run("invalid provider", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)

		err := service.SetLLMProvider("mystery", "", "")
		assert.ErrorIs(t, err, domain.ErrInput)
	})
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	require.NoError(t, service.Set("pipeline.artifact_root", "/srv"))
	require.NoError(t, service.Set("pipeline.stage_timeout", "45s"))
	assert.Equal(t, "/srv", store.GetString("pipeline.artifact_root"))

	require.NoError(t, service.Set("pipeline.quiz_count", "12"))
	require.NoError(t, service.Set("llm.rate_per_second", "0.5"))
	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 12, got.Pipeline.QuizCount)
	assert.InDelta(t, 0.5, got.LLM.RatePerSecond, 0.0001)
	assert.Equal(t, 45*time.Second, got.Pipeline.StageTimeout)

	assert.ErrorIs(t, service.Set("llm.provider", "mystery"), domain.ErrInput)
	assert.ErrorIs(t, service.Set("ocr.provider", "eyes"), domain.ErrInput)
	assert.ErrorIs(t, service.Set("store.provider", "floppy"), domain.ErrInput)
	assert.ErrorIs(t, service.Set("pipeline.call_timeout", "soon"), domain.ErrInput)
	assert.ErrorIs(t, service.Set("pipeline.dpi", "high"), domain.ErrInput)
	assert.ErrorIs(t, service.Set("pipeline.quiz_count", "0"), domain.ErrInput)
	assert.ErrorIs(t, service.Set("llm.rate_per_second", "-1"), domain.ErrInput)
}

func TestSettingsService_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)
		assert.NoError(t, service.Validate())
	})

	t.Run("cloud provider without key", func(t *testing.T) {
		store := memory.NewConfigStore()
		_ = store.Set("llm.provider", "openai")
		service := NewSettingsService(store, nil)

		assert.ErrorIs(t, service.Validate(), domain.ErrInput)
	})

	t.Run("mongo without uri", func(t *testing.T) {
		store := memory.NewConfigStore()
		_ = store.Set("store.provider", "mongo")
		service := NewSettingsService(store, nil)

		assert.ErrorIs(t, service.Validate(), domain.ErrInput)
	})
}

func TestSettingsService_ValidateLLMConfig(t *testing.T) {
	t.Run("nil validator", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)
		assert.NoError(t, service.ValidateLLMConfig())
	})

	t.Run("passes current llm settings", func(t *testing.T) {
		validator := &stubValidator{}
		service := NewSettingsService(memory.NewConfigStore(), validator)

		require.NoError(t, service.ValidateLLMConfig())
		require.NotNil(t, validator.got)
		assert.Equal(t, domain.AIProviderOllama, validator.got.Provider)
	})

	t.Run("propagates validator error", func(t *testing.T) {
		unreachable := errors.New("connection refused")
		service := NewSettingsService(memory.NewConfigStore(), &stubValidator{err: unreachable})

		assert.ErrorIs(t, service.ValidateLLMConfig(), unreachable)
	})
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)
	assert.Equal(t, domain.DefaultSettings(), service.GetDefaults())
}
