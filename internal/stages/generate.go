package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
	"github.com/custodia-labs/studypipe/internal/logger"
)

// Ensure generators implement the interface.
var (
	_ Stage = (*QuizGenerator)(nil)
	_ Stage = (*FlashcardGenerator)(nil)
)

// DefaultCount is the number of questions or cards requested when unset.
const DefaultCount = 10

// GenerateConfig configures an artifact generator.
type GenerateConfig struct {
	// Model overrides the gateway default.
	Model string

	// Count is the number of entries requested. Longer replies are truncated.
	Count int

	// Timeout bounds the generation call.
	Timeout time.Duration
}

func (c GenerateConfig) withDefaults() GenerateConfig {
	if c.Count <= 0 {
		c.Count = DefaultCount
	}
	return c
}

// generator holds the flow shared by the quiz and flashcard stages.
type generator struct {
	name      string
	prompt    string
	gateway   driven.InferenceGateway
	prompts   driven.PromptStore
	artifacts driven.ArtifactStore
	cfg       GenerateConfig
}

// generate returns the raw oracle reply for a digest.
func (g *generator) generate(ctx context.Context, digest string) (string, error) {
	prompt, err := render(g.prompts, g.prompt, g.cfg.Count, digest)
	if err != nil {
		return "", err
	}

	callCtx, cancel := withTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	raw, err := g.gateway.Generate(callCtx, prompt, g.cfg.Model)
	if err != nil {
		return "", callError("generate "+g.name, err)
	}
	return raw, nil
}

// runGenerator asks for a list, validates it and writes it to outPath.
// Nothing is written unless every entry validates.
func runGenerator[T record](ctx context.Context, g *generator, digest, outPath string) ([]T, error) {
	raw, err := g.generate(ctx, digest)
	if err != nil {
		return nil, err
	}

	items, text, err := ParseList[T](raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.name, err)
	}

	if len(items) > g.cfg.Count {
		logger.Warn("%s: oracle returned %d entries, keeping %d", g.name, len(items), g.cfg.Count)
		items = items[:g.cfg.Count]
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("%s: encode: %w", g.name, err)
		}
		text = string(data)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := g.artifacts.WriteFile(outPath, []byte(text)); err != nil {
		return nil, fmt.Errorf("write %s: %w", g.name, err)
	}
	logger.Debug("%s: wrote %d entries to %s", g.name, len(items), outPath)
	return items, nil
}

// QuizGenerator writes a multiple-choice quiz from the digest.
type QuizGenerator struct {
	g generator
}

// NewQuizGenerator creates a QuizGenerator.
func NewQuizGenerator(
	gateway driven.InferenceGateway,
	prompts driven.PromptStore,
	artifacts driven.ArtifactStore,
	cfg GenerateConfig,
) *QuizGenerator {
	return &QuizGenerator{g: generator{
		name:      NameQuiz,
		prompt:    driven.PromptQuiz,
		gateway:   gateway,
		prompts:   prompts,
		artifacts: artifacts,
		cfg:       cfg.withDefaults(),
	}}
}

// Name implements Stage.
func (q *QuizGenerator) Name() string { return NameQuiz }

// Version implements Stage.
func (q *QuizGenerator) Version() int { return 1 }

// WithCount returns a copy requesting n questions. Non-positive n keeps the current count.
func (q *QuizGenerator) WithCount(n int) *QuizGenerator {
	if n <= 0 {
		return q
	}
	c := *q
	c.g.cfg.Count = n
	return &c
}

// Run generates, validates and writes the quiz.
func (q *QuizGenerator) Run(ctx context.Context, digest, outPath string) ([]domain.QuizQuestion, error) {
	return runGenerator[domain.QuizQuestion](ctx, &q.g, digest, outPath)
}

// FlashcardGenerator writes a flashcard deck from the digest.
type FlashcardGenerator struct {
	g generator
}

// NewFlashcardGenerator creates a FlashcardGenerator.
func NewFlashcardGenerator(
	gateway driven.InferenceGateway,
	prompts driven.PromptStore,
	artifacts driven.ArtifactStore,
	cfg GenerateConfig,
) *FlashcardGenerator {
	return &FlashcardGenerator{g: generator{
		name:      NameFlashcards,
		prompt:    driven.PromptFlashcards,
		gateway:   gateway,
		prompts:   prompts,
		artifacts: artifacts,
		cfg:       cfg.withDefaults(),
	}}
}

// Name implements Stage.
func (f *FlashcardGenerator) Name() string { return NameFlashcards }

// Version implements Stage.
func (f *FlashcardGenerator) Version() int { return 1 }

// WithCount returns a copy requesting n cards. Non-positive n keeps the current count.
func (f *FlashcardGenerator) WithCount(n int) *FlashcardGenerator {
	if n <= 0 {
		return f
	}
	c := *f
	c.g.cfg.Count = n
	return &c
}

// Run generates, validates and writes the flashcards.
func (f *FlashcardGenerator) Run(ctx context.Context, digest, outPath string) ([]domain.Flashcard, error) {
	return runGenerator[domain.Flashcard](ctx, &f.g, digest, outPath)
}
