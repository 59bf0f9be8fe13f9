// Package stages implements the pipeline steps that turn a PDF into learning
// artifacts.
//
// Every stage satisfies the Stage contract and takes one configuration struct.
// Stages know nothing about each other or about material records; the
// orchestrator in internal/core/services sequences them and owns all state.
//
// # Stages
//
//   - Extractor: rasterises pages and recognises their text
//   - Classifier: labels each block through the inference gateway, in parallel
//   - Synthesizer: writes the concept digest from content-bearing blocks
//   - QuizGenerator, FlashcardGenerator: write validated JSON lists
//   - Explainer: writes tutor feedback for incorrect answers
//
// # Failure Policy
//
// Classifier and Explainer absorb per-item failures and degrade to a default
// label or fallback text. Every other external failure is fatal to its stage.
package stages
