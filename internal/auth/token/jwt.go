// Package token issues and decodes the signed, self-contained session
// credential. The token - not a server-side session table - is the sole
// source of identity and role during a request.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"heirloom/internal/identity/models"
	dErrors "heirloom/pkg/domain-errors"
)

const issuer = "heirloom"

// Claims is the signed session payload.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Service signs and verifies session tokens with HS256.
type Service struct {
	signingKey []byte
	ttl        time.Duration
	clock      func() time.Time
}

type Option func(*Service)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs the issuer. A missing signing key is a configuration
// error: the issuer refuses to operate rather than sign with a known value.
func NewService(signingKey string, ttl time.Duration, opts ...Option) (*Service, error) {
	if signingKey == "" {
		return nil, dErrors.New(dErrors.CodeConfiguration, "session signing key is not configured")
	}
	if ttl <= 0 {
		return nil, dErrors.New(dErrors.CodeConfiguration, "session TTL must be positive")
	}
	s := &Service{signingKey: []byte(signingKey), ttl: ttl, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue embeds the user's id, email, and role into a signed token expiring
// one validity window from now. There is no refresh mechanism.
func (s *Service) Issue(user *models.User) (string, error) {
	now := s.clock()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := t.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session token")
	}
	return signed, nil
}

// Decode verifies signature and expiry and returns the claims. Signature and
// expiry failures are both unauthorized; callers must not distinguish them
// to clients.
func (s *Service) Decode(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithTimeFunc(s.clock))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "session has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session claims")
	}
	return claims, nil
}

// TTL reports the configured validity window.
func (s *Service) TTL() time.Duration {
	return s.ttl
}
