package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"heirloom/internal/identity/models"
	userstore "heirloom/internal/identity/store/user"
	dErrors "heirloom/pkg/domain-errors"
)

type IdentityServiceSuite struct {
	suite.Suite
	svc   *Service
	store *userstore.InMemory
}

func (s *IdentityServiceSuite) SetupTest() {
	s.store = userstore.NewInMemory()
	s.svc = New(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestIdentityServiceSuite(t *testing.T) {
	suite.Run(t, new(IdentityServiceSuite))
}

func (s *IdentityServiceSuite) TestCreateAndLookup() {
	s.Run("creates user with hashed password", func() {
		u, err := s.svc.Create(context.Background(), CreateUserRequest{
			FullName: "Saadi Rahman",
			Email:    "saadi@example.com",
			Password: "saadi123",
			Role:     models.RoleAdmin,
		}, "")
		s.Require().NoError(err)
		s.NotEqual("saadi123", u.PasswordHash)
		s.True(s.svc.VerifyPassword("saadi123", u.PasswordHash))
		s.False(s.svc.VerifyPassword("wrong", u.PasswordHash))
	})

	s.Run("lookup by email", func() {
		_, err := s.svc.Create(context.Background(), CreateUserRequest{
			FullName: "Jane", Email: "jane@example.com", Password: "pw", Role: models.RoleViewer,
		}, "")
		s.Require().NoError(err)

		u, err := s.svc.Lookup(context.Background(), "jane@example.com")
		s.Require().NoError(err)
		s.Equal(models.RoleViewer, u.Role)
	})

	s.Run("unknown email is not found", func() {
		_, err := s.svc.Lookup(context.Background(), "nobody@example.com")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("duplicate email conflicts", func() {
		req := CreateUserRequest{FullName: "A", Email: "dup@example.com", Password: "pw", Role: models.RoleViewer}
		_, err := s.svc.Create(context.Background(), req, "")
		s.Require().NoError(err)
		_, err = s.svc.Create(context.Background(), req, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("invalid input is a validation error", func() {
		_, err := s.svc.Create(context.Background(), CreateUserRequest{
			FullName: "X", Email: "bad-email", Password: "pw", Role: models.RoleViewer,
		}, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *IdentityServiceSuite) TestUpdate() {
	u, err := s.svc.Create(context.Background(), CreateUserRequest{
		FullName: "Jane", Email: "jane@example.com", Password: "pw", Role: models.RoleViewer,
	}, "")
	s.Require().NoError(err)

	s.Run("patch merges against stored state", func() {
		name := "Jane Q. Doe"
		role := models.RoleAdmin
		updated, err := s.svc.Update(context.Background(), u.ID, UpdateUserRequest{
			FullName: &name,
			Role:     &role,
		}, "admin-1")
		s.Require().NoError(err)
		s.Equal("Jane Q. Doe", updated.FullName)
		s.Equal(models.RoleAdmin, updated.Role)
		s.Equal("jane@example.com", updated.Email)
	})

	s.Run("password patch rehashes", func() {
		pw := "newpassword"
		updated, err := s.svc.Update(context.Background(), u.ID, UpdateUserRequest{Password: &pw}, "admin-1")
		s.Require().NoError(err)
		s.True(s.svc.VerifyPassword("newpassword", updated.PasswordHash))
	})

	s.Run("unknown id is not found", func() {
		name := "x"
		_, err := s.svc.Update(context.Background(), uuid.New(), UpdateUserRequest{FullName: &name}, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *IdentityServiceSuite) TestMarkDeceased() {
	u, err := s.svc.Create(context.Background(), CreateUserRequest{
		FullName: "Elder", Email: "elder@example.com", Password: "pw", Role: models.RoleViewer,
	}, "")
	s.Require().NoError(err)

	updated, err := s.svc.MarkDeceased(context.Background(), u.ID, "admin-1")
	s.Require().NoError(err)
	s.Equal(models.StatusDeceased, updated.Status)

	// Record stays resolvable after the transition.
	got, err := s.svc.Get(context.Background(), u.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusDeceased, got.Status)

	_, err = s.svc.MarkDeceased(context.Background(), u.ID, "admin-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *IdentityServiceSuite) TestClockInjection() {
	fixed := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := New(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)), WithClock(func() time.Time { return fixed }))

	u, err := svc.Create(context.Background(), CreateUserRequest{
		FullName: "T", Email: "t@example.com", Password: "pw", Role: models.RoleViewer,
	}, "")
	s.Require().NoError(err)
	s.Equal(fixed, u.CreatedAt)
}
