package models

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "heirloom/pkg/domain-errors"
)

// Role scopes what a user may do. Admins mutate; viewers read.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleViewer
}

// LifeStatus records whether a family member is alive. Deceased members stay
// in the directory because their ownership shares and history references
// must keep resolving; users are never hard-deleted.
type LifeStatus string

const (
	StatusAlive    LifeStatus = "alive"
	StatusDeceased LifeStatus = "deceased"
)

func (s LifeStatus) IsValid() bool {
	return s == StatusAlive || s == StatusDeceased
}

// User is one identity in the family directory. It doubles as the person
// record that asset ownership shares reference.
//
// Invariants:
//   - FullName is non-empty and at most 128 characters
//   - Email is a valid address, unique across the directory
//   - PasswordHash is a one-way digest; plaintext is never persisted
//   - Role is admin or viewer
//   - Status is alive or deceased
type User struct {
	ID           uuid.UUID  `json:"id"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // never serialize
	Role         Role       `json:"role"`
	Status       LifeStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewUser validates invariants and constructs a User. The caller supplies an
// already-hashed password; this constructor never sees plaintext.
func NewUser(id uuid.UUID, fullName, email, passwordHash string, role Role, now time.Time) (*User, error) {
	fullName = strings.TrimSpace(fullName)
	email = NormalizeEmail(email)

	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	if len(fullName) > 128 {
		return nil, dErrors.New(dErrors.CodeValidation, "full_name must be 128 characters or less")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "email is not a valid address")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password is required")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "role must be admin or viewer")
	}

	return &User{
		ID:           id,
		FullName:     fullName,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       StatusAlive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NormalizeEmail lowercases and trims an email so uniqueness checks are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) IsAlive() bool {
	return u.Status == StatusAlive
}

// MarkDeceased transitions the user to deceased. The record remains in the
// directory so ownership references keep resolving.
func (u *User) MarkDeceased(now time.Time) error {
	if u.Status == StatusDeceased {
		return dErrors.New(dErrors.CodeInvariantViolation, "user is already deceased")
	}
	u.Status = StatusDeceased
	u.UpdatedAt = now
	return nil
}
