package services

import (
	"context"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
	"github.com/custodia-labs/studypipe/internal/core/ports/driving"
)

// Ensure MaterialService implements the interface.
var _ driving.MaterialService = (*MaterialService)(nil)

// MaterialService provides read access to material records.
type MaterialService struct {
	store driven.MaterialStore
}

// NewMaterialService creates a new material service.
func NewMaterialService(store driven.MaterialStore) *MaterialService {
	return &MaterialService{store: store}
}

// Get retrieves a material by ID.
func (s *MaterialService) Get(ctx context.Context, id string) (*domain.Material, error) {
	m, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, storeError("find material", err)
	}
	return m, nil
}

// List returns materials matching the filter.
func (s *MaterialService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Material, error) {
	ms, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, storeError("list materials", err)
	}
	return ms, nil
}
