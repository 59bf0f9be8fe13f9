package driving

import (
	"context"

	"github.com/custodia-labs/studypipe/internal/core/domain"
)

// MaterialService is the read side for material records.
type MaterialService interface {
	// Get retrieves a material by ID.
	Get(ctx context.Context, id string) (*domain.Material, error)

	// List returns materials matching the filter.
	List(ctx context.Context, filter domain.ListFilter) ([]domain.Material, error)
}
