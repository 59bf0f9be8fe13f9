// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services and pipeline stages depend on these interfaces, and
// infrastructure adapters implement them.
//
// # Required Interfaces
//
//   - InferenceGateway: Generative text oracle (Ollama, OpenAI, Anthropic, Gemini)
//   - Recognizer: Optical character recognition (tesseract, Cloud Vision)
//   - Rasterizer: Renders PDF pages to images
//   - MaterialStore: Durable material records
//   - ArtifactStore: Artifact file reads, writes and validation gates
//   - PromptStore: Prompt templates for each stage
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or stage package
package driven
