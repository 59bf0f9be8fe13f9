package driven

import "context"

// Recognizer extracts text from a page image.
type Recognizer interface {
	// Recognize returns the text found in an encoded image (PNG).
	// An image with no text returns "" and no error.
	Recognize(ctx context.Context, image []byte) (string, error)

	// Close releases resources.
	Close() error
}

// PageImage is one rasterised PDF page.
type PageImage struct {
	// Page is the one-based page number.
	Page int

	// PNG is the encoded image.
	PNG []byte

	Width  int
	Height int
}

// Rasterizer renders every page of a PDF to an image.
type Rasterizer interface {
	// Rasterize renders pages at the given resolution, in page order.
	// An unreadable PDF returns an error wrapping domain.ErrExtraction.
	Rasterize(ctx context.Context, pdfPath string, dpi int) ([]PageImage, error)
}
