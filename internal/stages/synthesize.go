package stages

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
	"github.com/custodia-labs/studypipe/internal/logger"
)

// Ensure Synthesizer implements the interface.
var _ Stage = (*Synthesizer)(nil)

// SynthesizeConfig configures the Synthesizer.
type SynthesizeConfig struct {
	// Model overrides the gateway default.
	Model string

	// Timeout bounds the generation call.
	Timeout time.Duration
}

// Synthesizer produces the concept digest that feeds quiz and flashcard generation.
type Synthesizer struct {
	gateway   driven.InferenceGateway
	prompts   driven.PromptStore
	artifacts driven.ArtifactStore
	cfg       SynthesizeConfig
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(
	gateway driven.InferenceGateway,
	prompts driven.PromptStore,
	artifacts driven.ArtifactStore,
	cfg SynthesizeConfig,
) *Synthesizer {
	return &Synthesizer{gateway: gateway, prompts: prompts, artifacts: artifacts, cfg: cfg}
}

// Name implements Stage.
func (s *Synthesizer) Name() string { return NameContext }

// Version implements Stage.
func (s *Synthesizer) Version() int { return 1 }

// Run joins content-bearing block text, asks for a digest and writes the
// response to outPath verbatim. The digest's structure is not checked.
func (s *Synthesizer) Run(ctx context.Context, blocks []domain.TextBlock, outPath string) (string, error) {
	content := domain.ContentText(blocks)
	if content == "" {
		return "", fmt.Errorf("%w: %d blocks, none labelled title, text or answer", domain.ErrEmptyContent, len(blocks))
	}

	prompt, err := render(s.prompts, driven.PromptContext, content)
	if err != nil {
		return "", err
	}

	callCtx, cancel := withTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	digest, err := s.gateway.Generate(callCtx, prompt, s.cfg.Model)
	if err != nil {
		return "", callError("synthesize context", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.artifacts.WriteFile(outPath, []byte(digest)); err != nil {
		return "", fmt.Errorf("write context: %w", err)
	}
	logger.Debug("context: %d input chars, %d digest chars", len(content), len(digest))
	return digest, nil
}
