package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/studypipe/internal/core/domain"
)

// PipelineService runs the extraction to quiz pipeline for one material.
type PipelineService interface {
	// Run executes a full pipeline run. The returned result is populated on
	// stage failure too, with the material in its failed state.
	Run(ctx context.Context, req RunRequest) (*RunResult, error)

	// Status returns the material record for id.
	Status(ctx context.Context, id string) (*domain.Material, error)
}

// RunRequest describes one pipeline run.
type RunRequest struct {
	// PDFPath is the source document on disk.
	PDFPath string

	// OriginalFilename is the uploaded name. Defaults to the base of PDFPath.
	OriginalFilename string

	// Subject is the namespace for artifact paths.
	Subject domain.Subject

	// UploadedBy references the uploading user.
	UploadedBy string

	// MaterialID reruns an existing material when set. A new ID is generated otherwise.
	MaterialID string

	// QuizCount and FlashcardCount override configured counts when positive.
	QuizCount      int
	FlashcardCount int
}

// RunResult summarises a finished run.
type RunResult struct {
	Material *domain.Material

	// FlashcardsWritten is false when the supplementary stage failed.
	FlashcardsWritten bool

	// Duration is the wall time of the run.
	Duration time.Duration
}
