// Package fitz provides a Rasterizer backed by MuPDF through go-fitz.
package fitz

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
)

// Ensure Rasterizer implements the interface.
var _ driven.Rasterizer = (*Rasterizer)(nil)

// Rasterizer renders PDF pages to PNG.
type Rasterizer struct{}

// NewRasterizer creates a PDF rasterizer.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{}
}

// Rasterize renders every page of pdfPath at dpi, in page order.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath string, dpi int) ([]driven.PageImage, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", domain.ErrExtraction, pdfPath, err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, fmt.Errorf("%w: %s has no pages", domain.ErrExtraction, pdfPath)
	}

	pages := make([]driven.PageImage, 0, pageCount)
	for n := 0; n < pageCount; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.ImageDPI(n, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("%w: rendering page %d: %w", domain.ErrExtraction, n+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("%w: encoding page %d: %w", domain.ErrExtraction, n+1, err)
		}

		bounds := img.Bounds()
		pages = append(pages, driven.PageImage{
			Page:   n + 1,
			PNG:    buf.Bytes(),
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
		})
	}
	return pages, nil
}
