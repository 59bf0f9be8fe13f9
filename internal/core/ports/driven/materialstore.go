package driven

import (
	"context"

	"github.com/custodia-labs/studypipe/internal/core/domain"
)

// MaterialStore persists material records.
// Connection failures wrap domain.ErrStoreUnavailable.
type MaterialStore interface {
	// Insert stores a new material and returns its ID.
	Insert(ctx context.Context, m *domain.Material) (string, error)

	// Update applies a partial update. Returns domain.ErrNotFound for unknown IDs.
	Update(ctx context.Context, id string, u domain.MaterialUpdate) error

	// Find retrieves a material by ID. Returns domain.ErrNotFound for unknown IDs.
	Find(ctx context.Context, id string) (*domain.Material, error)

	// List returns materials matching the filter, newest first.
	List(ctx context.Context, filter domain.ListFilter) ([]domain.Material, error)

	// Ping validates the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
