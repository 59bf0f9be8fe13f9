package stages

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
	"github.com/custodia-labs/studypipe/internal/logger"
)

// Ensure Classifier implements the interface.
var _ Stage = (*Classifier)(nil)

// DefaultClassifyWorkers bounds concurrent classification calls when unset.
const DefaultClassifyWorkers = 4

// ClassifyConfig configures the Classifier.
type ClassifyConfig struct {
	// Model overrides the gateway default.
	Model string

	// Workers bounds concurrent calls.
	Workers int

	// Timeout bounds each classification call.
	Timeout time.Duration
}

// Classifier assigns each block one label from the closed set.
type Classifier struct {
	gateway driven.InferenceGateway
	prompts driven.PromptStore
	cfg     ClassifyConfig
}

// NewClassifier creates a Classifier.
func NewClassifier(gateway driven.InferenceGateway, prompts driven.PromptStore, cfg ClassifyConfig) *Classifier {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultClassifyWorkers
	}
	return &Classifier{gateway: gateway, prompts: prompts, cfg: cfg}
}

// Name implements Stage.
func (c *Classifier) Name() string { return NameClassify }

// Version implements Stage.
func (c *Classifier) Version() int { return 1 }

// Run returns a copy of blocks with labels assigned, in input order.
// A failed call degrades its block to domain.LabelDefault. Only cancellation
// of ctx fails the stage.
func (c *Classifier) Run(ctx context.Context, blocks []domain.TextBlock) ([]domain.TextBlock, error) {
	out := make([]domain.TextBlock, len(blocks))
	copy(out, blocks)

	labels := make([]string, 0, len(domain.Labels()))
	for _, l := range domain.Labels() {
		labels = append(labels, `"`+l.String()+`"`)
	}
	labelList := "[" + strings.Join(labels, ", ") + "]"

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)

	var degraded atomic.Int64
	for i := range out {
		g.Go(func() error {
			label, err := c.classify(gctx, labelList, out[i].Text)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("classify: block %d (page %d) degraded to %s: %v", i, out[i].Page, domain.LabelDefault, err)
				degraded.Add(1)
				label = domain.LabelDefault
			}
			out[i].Label = label
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("classify: %d blocks, %d degraded", len(out), degraded.Load())
	return out, nil
}

func (c *Classifier) classify(ctx context.Context, labelList, text string) (domain.Label, error) {
	prompt, err := render(c.prompts, driven.PromptClassify, labelList, text)
	if err != nil {
		return domain.LabelDefault, err
	}

	callCtx, cancel := withTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.gateway.Generate(callCtx, prompt, c.cfg.Model)
	if err != nil {
		return domain.LabelDefault, callError("classify", err)
	}
	return domain.NormalizeLabel(resp), nil
}
