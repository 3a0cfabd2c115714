// Package user provides the persistence layer for the family directory.
package user

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"heirloom/internal/identity/models"
	"heirloom/pkg/platform/sentinel"
)

// InMemory keeps users in process memory. Used in tests and when no database
// is configured.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.User
	byEmail map[string]uuid.UUID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *InMemory) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[u.Email]; exists {
		return sentinel.ErrConflict
	}
	cp := *u
	s.byID[u.ID] = &cp
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[u.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Email != u.Email {
		if _, exists := s.byEmail[u.Email]; exists {
			return sentinel.ErrConflict
		}
		delete(s.byEmail, stored.Email)
		s.byEmail[u.Email] = u.ID
	}
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.byID))
	for _, u := range s.byID {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}
