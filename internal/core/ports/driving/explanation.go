package driving

import (
	"context"

	"github.com/custodia-labs/studypipe/internal/core/domain"
)

// ExplanationService produces tutor explanations for a quiz attempt.
type ExplanationService interface {
	// Explain requires a completed material with quiz content.
	Explain(ctx context.Context, req ExplainRequest) (*ExplainResult, error)
}

// ExplainRequest describes one quiz attempt.
type ExplainRequest struct {
	MaterialID string
	Answers    domain.AnswerSheet

	// AttemptID keys the output file. Generated when empty.
	AttemptID string
}

// ExplainResult holds the explanations and where they were written.
type ExplainResult struct {
	AttemptID    string
	Path         string
	Explanations []domain.Explanation
}
