package stages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
	"github.com/custodia-labs/studypipe/internal/logger"
)

// Ensure Extractor implements the interface.
var _ Stage = (*Extractor)(nil)

// ExtractConfig configures the Extractor.
type ExtractConfig struct {
	// DPI is the rasterisation resolution. Raised to domain.MinDPI when lower.
	DPI int

	// Timeout bounds each page's recognition call.
	Timeout time.Duration
}

// Extractor rasterises a PDF and recognises the text of each page.
type Extractor struct {
	rasterizer driven.Rasterizer
	recognizer driven.Recognizer
	cfg        ExtractConfig
}

// NewExtractor creates an Extractor.
func NewExtractor(rasterizer driven.Rasterizer, recognizer driven.Recognizer, cfg ExtractConfig) *Extractor {
	if cfg.DPI < domain.MinDPI {
		cfg.DPI = domain.MinDPI
	}
	return &Extractor{rasterizer: rasterizer, recognizer: recognizer, cfg: cfg}
}

// Name implements Stage.
func (e *Extractor) Name() string { return NameExtract }

// Version implements Stage.
func (e *Extractor) Version() int { return 1 }

// DPI returns the effective resolution.
func (e *Extractor) DPI() int { return e.cfg.DPI }

// Run returns one default-labelled block per page with text, in page order.
// Blank pages are dropped. A PDF with no text fails with domain.ErrExtraction.
func (e *Extractor) Run(ctx context.Context, pdfPath string) ([]domain.TextBlock, error) {
	pages, err := e.rasterizer.Rasterize(ctx, pdfPath, e.cfg.DPI)
	if err != nil {
		if errors.Is(err, domain.ErrExtraction) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: rasterize %s: %v", domain.ErrExtraction, pdfPath, err)
	}

	blocks := make([]domain.TextBlock, 0, len(pages))
	for _, page := range pages {
		text, err := e.recognize(ctx, page)
		if err != nil {
			return nil, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			logger.Debug("extract: page %d has no text, dropped", page.Page)
			continue
		}
		blocks = append(blocks, domain.TextBlock{
			Page:  page.Page,
			Text:  text,
			Label: domain.LabelDefault,
		})
	}

	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: no extractable text in %s (%d pages)", domain.ErrExtraction, pdfPath, len(pages))
	}
	logger.Debug("extract: %d blocks from %d pages", len(blocks), len(pages))
	return blocks, nil
}

func (e *Extractor) recognize(ctx context.Context, page driven.PageImage) (string, error) {
	callCtx, cancel := withTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	text, err := e.recognizer.Recognize(callCtx, page.PNG)
	if err != nil {
		return "", callError(fmt.Sprintf("recognize page %d", page.Page), err)
	}
	return text, nil
}
