package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
	"github.com/custodia-labs/studypipe/internal/logger"
)

// Ensure Explainer implements the interface.
var _ Stage = (*Explainer)(nil)

// DefaultFallbackExplanation replaces an explanation whose generation failed.
const DefaultFallbackExplanation = "An error occurred while generating the explanation."

// noAnswer renders a skipped question.
const noAnswer = "No answer provided"

// ExplainConfig configures the Explainer.
type ExplainConfig struct {
	// Model overrides the gateway default.
	Model string

	// Timeout bounds each explanation call.
	Timeout time.Duration

	// Fallback replaces failed explanations. Defaults to DefaultFallbackExplanation.
	Fallback string
}

// Explainer writes tutor feedback for every incorrect answer in an attempt.
type Explainer struct {
	gateway   driven.InferenceGateway
	prompts   driven.PromptStore
	artifacts driven.ArtifactStore
	cfg       ExplainConfig
}

// NewExplainer creates an Explainer.
func NewExplainer(
	gateway driven.InferenceGateway,
	prompts driven.PromptStore,
	artifacts driven.ArtifactStore,
	cfg ExplainConfig,
) *Explainer {
	if cfg.Fallback == "" {
		cfg.Fallback = DefaultFallbackExplanation
	}
	return &Explainer{gateway: gateway, prompts: prompts, artifacts: artifacts, cfg: cfg}
}

// Name implements Stage.
func (e *Explainer) Name() string { return NameExplain }

// Version implements Stage.
func (e *Explainer) Version() int { return 1 }

// Run explains each incorrect submission in order and writes the records to outPath.
// Submissions pointing outside the quiz are skipped. A failed call yields the
// fallback text for that question only.
func (e *Explainer) Run(
	ctx context.Context,
	quiz []domain.QuizQuestion,
	sheet domain.AnswerSheet,
	outPath string,
) ([]domain.Explanation, error) {
	explanations := make([]domain.Explanation, 0)

	for _, ans := range sheet.Incorrect() {
		if ans.QuestionIndex < 0 || ans.QuestionIndex >= len(quiz) {
			logger.Warn("explain: answer for question %d outside quiz of %d, skipped", ans.QuestionIndex, len(quiz))
			continue
		}
		q := quiz[ans.QuestionIndex]

		text, err := e.explain(ctx, q, ans.SelectedOption)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.Warn("explain: question %d: %v", ans.QuestionIndex, err)
			text = e.cfg.Fallback
		}

		explanations = append(explanations, domain.Explanation{
			Index:         ans.QuestionIndex,
			Question:      q.Question,
			Options:       q.Options,
			UserAnswer:    ans.SelectedOption,
			CorrectAnswer: q.Answer,
			Explanation:   text,
		})
	}

	data, err := json.MarshalIndent(explanations, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode explanations: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.artifacts.WriteFile(outPath, data); err != nil {
		return nil, fmt.Errorf("write explanations: %w", err)
	}
	return explanations, nil
}

func (e *Explainer) explain(ctx context.Context, q domain.QuizQuestion, selected domain.OptionKey) (string, error) {
	selectedKey, selectedText := string(selected), q.Options.Get(selected)
	if selectedText == "" {
		selectedText = noAnswer
	}
	if selectedKey == "" {
		selectedKey = "-"
	}

	prompt, err := render(e.prompts, driven.PromptExplain,
		q.Question,
		q.Options.A, q.Options.B, q.Options.C, q.Options.D,
		selectedKey, selectedText,
		string(q.Answer), q.Options.Get(q.Answer),
	)
	if err != nil {
		return "", err
	}

	callCtx, cancel := withTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	resp, err := e.gateway.Generate(callCtx, prompt, e.cfg.Model)
	if err != nil {
		return "", callError("explain", err)
	}

	text := PlainText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: empty explanation", domain.ErrFormat)
	}
	return text, nil
}

// PlainText strips emphasis and heading markup from generated prose.
func PlainText(s string) string {
	s = strings.NewReplacer("**", "", "*", "", "`", "").Replace(s)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "#") {
			lines[i] = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
