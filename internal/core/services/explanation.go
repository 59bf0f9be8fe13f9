package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
	"github.com/custodia-labs/studypipe/internal/core/ports/driving"
	"github.com/custodia-labs/studypipe/internal/logger"
	"github.com/custodia-labs/studypipe/internal/stages"
)

// Ensure ExplanationService implements the interface.
var _ driving.ExplanationService = (*ExplanationService)(nil)

// ExplanationService explains the incorrect answers of a quiz attempt.
type ExplanationService struct {
	store        driven.MaterialStore
	explainer    *stages.Explainer
	artifactRoot string
	newID        func() string
}

// NewExplanationService creates an explanation service writing under artifactRoot.
func NewExplanationService(
	store driven.MaterialStore,
	gateway driven.InferenceGateway,
	prompts driven.PromptStore,
	artifacts driven.ArtifactStore,
	artifactRoot string,
	cfg stages.ExplainConfig,
) *ExplanationService {
	return &ExplanationService{
		store:        store,
		explainer:    stages.NewExplainer(gateway, prompts, artifacts, cfg),
		artifactRoot: artifactRoot,
		newID:        uuid.NewString,
	}
}

// Explain writes one explanation file for the attempt and returns its records.
func (s *ExplanationService) Explain(ctx context.Context, req driving.ExplainRequest) (*driving.ExplainResult, error) {
	if req.MaterialID == "" {
		return nil, fmt.Errorf("%w: material id is required", domain.ErrInput)
	}

	m, err := s.store.Find(ctx, req.MaterialID)
	if err != nil {
		return nil, storeError("find material", err)
	}
	if m.Status != domain.StatusCompleted || len(m.QuizContent) == 0 {
		return nil, fmt.Errorf("%w: material %s is %s, explanations need a completed quiz",
			domain.ErrInput, m.ID, m.Status)
	}

	attempt := req.AttemptID
	if attempt == "" {
		attempt = s.newID()
	}
	base := m.SafeName
	if base == "" {
		base = domain.SafeName(m.OriginalFilename)
	}
	path := domain.ExplanationPath(s.artifactRoot, base, attempt)

	log := logger.With("material", m.ID, "attempt", attempt)
	log.Section("EXPLAIN")
	explanations, err := s.explainer.Run(ctx, m.QuizContent, req.Answers, path)
	if err != nil {
		return nil, domain.NewStageError(s.explainer.Name(), err)
	}
	log.Info("%d explanations written to %s", len(explanations), path)

	return &driving.ExplainResult{
		AttemptID:    attempt,
		Path:         path,
		Explanations: explanations,
	}, nil
}
