// Package ai builds the external capability adapters selected by domain.Settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/studypipe/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/studypipe/internal/adapters/driven/llm/gemini"
	"github.com/custodia-labs/studypipe/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/studypipe/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/studypipe/internal/adapters/driven/llm/ratelimit"
	"github.com/custodia-labs/studypipe/internal/adapters/driven/ocr/tesseract"
	"github.com/custodia-labs/studypipe/internal/adapters/driven/ocr/vision"
	"github.com/custodia-labs/studypipe/internal/adapters/driven/pdf/fitz"
	"github.com/custodia-labs/studypipe/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/studypipe/internal/adapters/driven/storage/mongo"
	"github.com/custodia-labs/studypipe/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
	"github.com/custodia-labs/studypipe/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Components holds every adapter a pipeline run needs.
type Components struct {
	Gateway    driven.InferenceGateway
	Recognizer driven.Recognizer
	Rasterizer driven.Rasterizer
	Store      driven.MaterialStore
}

// Close releases all resources held by Components.
func (c *Components) Close() error {
	var errs []error
	if c.Gateway != nil {
		errs = append(errs, c.Gateway.Close())
	}
	if c.Recognizer != nil {
		errs = append(errs, c.Recognizer.Close())
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	return errors.Join(errs...)
}

// Build creates every adapter from settings. On error, anything already
// created is closed.
func Build(ctx context.Context, settings *domain.Settings) (*Components, error) {
	c := &Components{Rasterizer: fitz.NewRasterizer()}

	store, err := CreateMaterialStore(ctx, &settings.Store)
	if err != nil {
		return nil, err
	}
	c.Store = store

	gateway, err := CreateGateway(ctx, &settings.LLM, settings.Pipeline.CallTimeout)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Gateway = gateway

	recognizer, err := CreateRecognizer(ctx, &settings.OCR)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Recognizer = recognizer

	return c, nil
}

// CreateAndValidateGateway creates a gateway and validates connectivity.
// Returns the gateway if successful, or an error with guidance.
func CreateAndValidateGateway(settings *domain.LLMSettings, callTimeout time.Duration) (driven.InferenceGateway, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	gw, err := CreateGateway(ctx, settings, callTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w. Run 'studypipe config set llm.provider' to fix", err)
	}

	if err := gw.Ping(ctx); err != nil {
		_ = gw.Close()
		return nil, fmt.Errorf("%s unreachable (%w). Check llm.base_url and llm.api_key", settings.Provider, err)
	}

	return gw, nil
}

// ValidateLLMConfig validates an LLM configuration by creating a gateway and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil {
		return nil
	}
	gw, err := CreateAndValidateGateway(settings, pingTimeout)
	if err != nil {
		return err
	}
	return gw.Close()
}

// CreateGateway creates the inference gateway for the configured provider,
// rate limited when llm.rate_per_second is set.
func CreateGateway(
	ctx context.Context,
	settings *domain.LLMSettings,
	callTimeout time.Duration,
) (driven.InferenceGateway, error) {
	if settings == nil || !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: unsupported LLM provider", domain.ErrInput)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s requires llm.api_key", domain.ErrInput, settings.Provider)
	}

	var (
		gw  driven.InferenceGateway
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		gw = ollama.NewGateway(ollama.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: callTimeout,
		})
	case domain.AIProviderOpenAI:
		var g *openai.Gateway
		g, err = openai.NewGateway(openai.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: callTimeout,
		})
		gw = g
	case domain.AIProviderAnthropic:
		var g *anthropic.Gateway
		g, err = anthropic.NewGateway(anthropic.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: callTimeout,
		})
		gw = g
	case domain.AIProviderGemini:
		var g *gemini.Gateway
		g, err = gemini.NewGateway(ctx, gemini.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: callTimeout,
		})
		gw = g
	}
	if err != nil {
		return nil, err
	}

	return ratelimit.Wrap(gw, ratelimit.Config{RequestsPerSecond: settings.RatePerSecond}), nil
}

// CreateRecognizer creates the OCR recognizer for the configured provider.
func CreateRecognizer(ctx context.Context, settings *domain.OCRSettings) (driven.Recognizer, error) {
	switch settings.Provider {
	case domain.OCRProviderTesseract, "":
		r := tesseract.NewRecognizer(tesseract.Config{
			Binary:   settings.TesseractPath,
			Language: settings.Language,
		})
		if err := r.Ping(); err != nil {
			logger.Warn("tesseract not found, extraction will fail: %v", err)
		}
		return r, nil
	case domain.OCRProviderVision:
		r, err := vision.NewRecognizer(ctx, vision.Config{
			CredentialsFile: settings.CredentialsFile,
			Language:        visionLanguage(settings.Language),
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: unsupported OCR provider: %s", domain.ErrInput, settings.Provider)
	}
}

// visionLanguage maps tesseract's three-letter default to a Vision hint.
func visionLanguage(lang string) string {
	if lang == "eng" {
		return "en"
	}
	return lang
}

// CreateMaterialStore opens the record store for the configured provider.
func CreateMaterialStore(ctx context.Context, settings *domain.StoreSettings) (driven.MaterialStore, error) {
	switch settings.Provider {
	case domain.StoreProviderMemory:
		return memory.NewMaterialStore(), nil
	case domain.StoreProviderSQLite, "":
		s, err := sqlite.NewStore(settings.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case domain.StoreProviderMongo:
		s, err := mongo.NewStore(ctx, settings.URI, settings.Database)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unsupported store provider: %s", domain.ErrInput, settings.Provider)
	}
}
