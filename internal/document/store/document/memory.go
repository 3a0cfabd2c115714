// Package document provides the persistence layer for document metadata.
package document

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"heirloom/internal/document/models"
	"heirloom/pkg/platform/sentinel"
)

// InMemory keeps document metadata in process memory. Used in tests and
// when no database is configured.
type InMemory struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*models.Document
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[uuid.UUID]*models.Document)}
}

func (s *InMemory) Create(_ context.Context, d *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[d.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *d
	s.byID[d.ID] = &cp
	return nil
}

func (s *InMemory) Update(_ context.Context, d *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[d.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *d
	s.byID[d.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// ListByAsset returns the documents referencing one asset, oldest first.
func (s *InMemory) ListByAsset(_ context.Context, assetID uuid.UUID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for _, d := range s.byID {
		if d.AssetID == assetID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}
