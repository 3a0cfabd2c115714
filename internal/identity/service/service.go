// Package service implements the identity store: credential lookup and the
// person directory that asset ownership shares resolve against.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"heirloom/internal/audit"
	"heirloom/internal/identity/models"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/sentinel"
)

// UserStore is the persistence contract for the directory.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

// AuditPublisher queues audit events without blocking.
type AuditPublisher interface {
	Emit(event audit.Event) bool
}

// Service exposes identity store operations.
type Service struct {
	users  UserStore
	logger *slog.Logger
	audits AuditPublisher
	clock  func() time.Time
}

type Option func(*Service)

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.audits = p }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(users UserStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{users: users, logger: logger, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup finds a user by email.
func (s *Service) Lookup(ctx context.Context, email string) (*models.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	return u, nil
}

// Get finds a user by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}

// List returns the full directory.
func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

// VerifyPassword compares a plaintext candidate against a stored digest.
// Constant-time by virtue of bcrypt.
func (s *Service) VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// HashPassword produces the one-way digest persisted for a user.
func HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", dErrors.New(dErrors.CodeValidation, "password is required")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	return string(digest), nil
}

// CreateUserRequest carries the fields an admin supplies for a new directory
// entry.
type CreateUserRequest struct {
	FullName string      `json:"full_name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// Create adds a family member to the directory. Admin-gated by the caller.
func (s *Service) Create(ctx context.Context, req CreateUserRequest, actorID string) (*models.User, error) {
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	u, err := models.NewUser(uuid.New(), req.FullName, req.Email, hash, req.Role, now)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.emit(ctx, audit.ActionUserCreated, u.Email, actorID)
	return u, nil
}

// UpdateUserRequest is a partial patch; nil fields keep the stored value.
type UpdateUserRequest struct {
	FullName *string      `json:"full_name,omitempty"`
	Role     *models.Role `json:"role,omitempty"`
	Password *string      `json:"password,omitempty"`
}

// Update merges the patch against the freshest stored state and re-validates.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest, actorID string) (*models.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		if *req.FullName == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "full_name cannot be empty")
		}
		u.FullName = *req.FullName
	}
	if req.Role != nil {
		if !req.Role.IsValid() {
			return nil, dErrors.New(dErrors.CodeValidation, "role must be admin or viewer")
		}
		u.Role = *req.Role
	}
	if req.Password != nil {
		hash, err := HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	u.UpdatedAt = s.clock()

	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}

	s.emit(ctx, audit.ActionUserUpdated, u.Email, actorID)
	return u, nil
}

// MarkDeceased is the directory's soft delete. The record is retained so
// ownership shares keep resolving.
func (s *Service) MarkDeceased(ctx context.Context, id uuid.UUID, actorID string) (*models.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := u.MarkDeceased(s.clock()); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}

	s.emit(ctx, audit.ActionUserDeceased, u.Email, actorID)
	return u, nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, subject, actorID string) {
	if s.audits == nil {
		return
	}
	if !s.audits.Emit(audit.Event{
		Action:  string(action),
		Subject: subject,
		ActorID: actorID,
	}) {
		s.logger.WarnContext(ctx, "audit event dropped", "action", action)
	}
}
