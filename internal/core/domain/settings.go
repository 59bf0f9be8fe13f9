package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an inference gateway provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// OCRProvider identifies a recognition capability.
type OCRProvider string

// Available OCR providers.
const (
	// OCRProviderTesseract runs the local tesseract binary.
	OCRProviderTesseract OCRProvider = "tesseract"

	// OCRProviderVision uses Google Cloud Vision document text detection.
	OCRProviderVision OCRProvider = "vision"
)

// IsValid returns true if the OCR provider is recognised.
func (p OCRProvider) IsValid() bool {
	return p == OCRProviderTesseract || p == OCRProviderVision
}

// String returns the string representation.
func (p OCRProvider) String() string {
	return string(p)
}

// StoreProvider identifies a material record store backend.
type StoreProvider string

// Available store providers.
const (
	// StoreProviderMemory keeps records in process memory.
	StoreProviderMemory StoreProvider = "memory"

	// StoreProviderSQLite persists records in a local SQLite file.
	StoreProviderSQLite StoreProvider = "sqlite"

	// StoreProviderMongo persists records in a MongoDB collection.
	StoreProviderMongo StoreProvider = "mongo"
)

// IsValid returns true if the store provider is recognised.
func (p StoreProvider) IsValid() bool {
	switch p {
	case StoreProviderMemory, StoreProviderSQLite, StoreProviderMongo:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p StoreProvider) String() string {
	return string(p)
}

// LLMSettings holds inference gateway configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic/Gemini).
	APIKey string

	// RatePerSecond caps request rate. Zero disables limiting.
	RatePerSecond float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// OCRSettings holds recognizer configuration.
type OCRSettings struct {
	Provider OCRProvider

	// TesseractPath is the tesseract binary. Resolved from PATH when empty.
	TesseractPath string

	// Language is the tesseract language code.
	Language string

	// CredentialsFile is a service account file for Cloud Vision.
	CredentialsFile string
}

// StoreSettings holds material record store configuration.
type StoreSettings struct {
	Provider StoreProvider

	// Path is the SQLite database file.
	Path string

	// URI is the MongoDB connection string.
	URI string

	// Database is the MongoDB database name.
	Database string
}

// PipelineSettings holds run-level knobs.
type PipelineSettings struct {
	// ArtifactRoot is the directory all artifact paths are derived under.
	ArtifactRoot string

	// DPI is the rasterisation resolution. Values below MinDPI are raised.
	DPI int

	QuizCount      int
	FlashcardCount int

	// ClassifyWorkers bounds concurrent classification calls.
	ClassifyWorkers int

	// StageTimeout bounds one supervised stage.
	StageTimeout time.Duration

	// CallTimeout bounds one external call.
	CallTimeout time.Duration
}

// MinDPI is the lowest resolution accepted for recognition.
const MinDPI = 300

// Settings holds all application settings.
type Settings struct {
	LLM      LLMSettings
	OCR      OCRSettings
	Store    StoreSettings
	Pipeline PipelineSettings
}

// DefaultSettings returns settings with sensible defaults.
// A local Ollama and tesseract are assumed so a fresh install runs without keys.
func DefaultSettings() Settings {
	return Settings{
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModels()[AIProviderOllama],
			BaseURL:  "http://localhost:11434",
		},
		OCR: OCRSettings{
			Provider: OCRProviderTesseract,
			Language: "eng",
		},
		Store: StoreSettings{
			Provider: StoreProviderSQLite,
			Database: "studypipe",
		},
		Pipeline: PipelineSettings{
			ArtifactRoot:    "data",
			DPI:             MinDPI,
			QuizCount:       10,
			FlashcardCount:  10,
			ClassifyWorkers: 4,
			StageTimeout:    300 * time.Second,
			CallTimeout:     120 * time.Second,
		},
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "gemma3",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-2.5-flash",
	}
}
