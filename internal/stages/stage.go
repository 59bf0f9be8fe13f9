package stages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
)

// Stage names used in logs, stage errors and material error messages.
const (
	NameExtract    = "extract"
	NameClassify   = "classify"
	NameContext    = "context"
	NameQuiz       = "quiz"
	NameFlashcards = "flashcards"
	NameExplain    = "explain"
)

// Stage is the contract shared by every pipeline step.
// Each stage adds a typed Run method for its own input and output.
type Stage interface {
	// Name identifies the stage.
	Name() string

	// Version is bumped when the stage's output contract changes.
	Version() int
}

// Describe returns "name@vN" for logs.
func Describe(s Stage) string {
	return fmt.Sprintf("%s@v%d", s.Name(), s.Version())
}

// withTimeout bounds one external call. A non-positive d only adds cancellation.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// callError maps an external call failure onto the domain taxonomy.
func callError(what string, err error) error {
	switch {
	case errors.Is(err, domain.ErrExternalCall):
		return fmt.Errorf("%s: %w", what, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", what, domain.ErrTimeout)
	default:
		return fmt.Errorf("%s: %w: %v", what, domain.ErrUnavailable, err)
	}
}

// render loads a prompt template and fills its placeholders.
func render(prompts driven.PromptStore, name string, args ...any) (string, error) {
	tmpl, err := prompts.Load(name)
	if err != nil {
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
	return fmt.Sprintf(tmpl, args...), nil
}
