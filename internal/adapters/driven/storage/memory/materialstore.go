package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
)

// Ensure MaterialStore implements the interface.
var _ driven.MaterialStore = (*MaterialStore)(nil)

// MaterialStore is an in-memory implementation of driven.MaterialStore.
// Records are copied on the way in and out so callers never share state.
type MaterialStore struct {
	mu        sync.RWMutex
	materials map[string]domain.Material
	closed    bool
}

// NewMaterialStore creates a new in-memory material store.
func NewMaterialStore() *MaterialStore {
	return &MaterialStore{
		materials: make(map[string]domain.Material),
	}
}

// Insert stores a new material.
func (s *MaterialStore) Insert(_ context.Context, m *domain.Material) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", domain.ErrStoreUnavailable
	}
	if m.ID == "" {
		return "", fmt.Errorf("%w: material id is required", domain.ErrStore)
	}
	if _, ok := s.materials[m.ID]; ok {
		return "", fmt.Errorf("%w: material %s already exists", domain.ErrStore, m.ID)
	}
	s.materials[m.ID] = clone(*m)
	return m.ID, nil
}

// Update applies a partial update.
func (s *MaterialStore) Update(_ context.Context, id string, u domain.MaterialUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreUnavailable
	}
	m, ok := s.materials[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Apply(&m)
	s.materials[id] = clone(m)
	return nil
}

// Find retrieves a material by ID.
func (s *MaterialStore) Find(_ context.Context, id string) (*domain.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreUnavailable
	}
	m, ok := s.materials[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := clone(m)
	return &c, nil
}

// List returns materials matching the filter, newest first.
func (s *MaterialStore) List(_ context.Context, filter domain.ListFilter) ([]domain.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreUnavailable
	}
	result := make([]domain.Material, 0, len(s.materials))
	for _, m := range s.materials {
		if filter.Matches(&m) {
			result = append(result, clone(m))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Ping reports whether the store is open.
func (s *MaterialStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreUnavailable
	}
	return nil
}

// Close marks the store closed. Later calls fail with domain.ErrStoreUnavailable.
func (s *MaterialStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func clone(m domain.Material) domain.Material {
	m.Artifacts = m.Artifacts.Clone()
	if m.QuizContent != nil {
		m.QuizContent = append([]domain.QuizQuestion(nil), m.QuizContent...)
	}
	if m.StartedAt != nil {
		t := *m.StartedAt
		m.StartedAt = &t
	}
	if m.CompletedAt != nil {
		t := *m.CompletedAt
		m.CompletedAt = &t
	}
	if m.FailedAt != nil {
		t := *m.FailedAt
		m.FailedAt = &t
	}
	return m
}
