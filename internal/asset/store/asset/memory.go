// Package asset provides the persistence layer for property records.
//
// Both stores implement optimistic concurrency: updates carry the version
// the caller read, and a mismatch against the stored version fails with
// sentinel.ErrConflict so the service can re-read and re-validate.
package asset

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"heirloom/internal/asset/models"
	"heirloom/pkg/platform/sentinel"
)

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	Type   models.AssetType
	Status models.Status
}

func (f ListFilter) matches(a *models.Asset) bool {
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Status != "" && a.CurrentStatus != f.Status {
		return false
	}
	return true
}

// InMemory keeps assets in process memory. Used in tests and when no
// database is configured.
type InMemory struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*models.Asset
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[uuid.UUID]*models.Asset)}
}

func (s *InMemory) Create(_ context.Context, a *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[a.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := clone(a)
	s.byID[a.ID] = cp
	return nil
}

// Update replaces the stored record if and only if the caller's version
// matches the stored one, then bumps the version on both sides.
func (s *InMemory) Update(_ context.Context, a *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[a.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Version != a.Version {
		return sentinel.ErrConflict
	}
	cp := clone(a)
	cp.Version++
	s.byID[a.ID] = cp
	a.Version = cp.Version
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(a), nil
}

func (s *InMemory) List(_ context.Context, filter ListFilter) ([]*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Asset, 0, len(s.byID))
	for _, a := range s.byID {
		if filter.matches(a) {
			out = append(out, clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Purge removes the record permanently. Soft deletion is a status update and
// never reaches this method.
func (s *InMemory) Purge(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// clone deep-copies the slices so callers can never mutate stored state.
func clone(a *models.Asset) *models.Asset {
	cp := *a
	cp.Tags = append([]string(nil), a.Tags...)
	cp.Flags = append([]string(nil), a.Flags...)
	cp.Owners = append([]models.OwnershipShare(nil), a.Owners...)
	cp.History = append([]models.HistoryEntry(nil), a.History...)
	if a.Location != nil {
		loc := *a.Location
		cp.Location = &loc
	}
	if a.Dimensions != nil {
		d := *a.Dimensions
		cp.Dimensions = &d
	}
	if a.Structure != nil {
		st := *a.Structure
		cp.Structure = &st
	}
	if a.Specs != nil {
		sp := *a.Specs
		cp.Specs = &sp
	}
	if a.Registration != nil {
		reg := *a.Registration
		cp.Registration = &reg
	}
	if a.Acquisition != nil {
		acq := *a.Acquisition
		cp.Acquisition = &acq
	}
	if a.Valuation != nil {
		v := *a.Valuation
		cp.Valuation = &v
	}
	if a.Mutation != nil {
		m := *a.Mutation
		cp.Mutation = &m
	}
	if a.Compliance != nil {
		c := *a.Compliance
		cp.Compliance = &c
	}
	return &cp
}
