// Package service implements authentication: credential verification, session
// issuance, logout revocation, and the forgot-password dispatch.
package service

import (
	"context"
	"log/slog"
	"time"

	"heirloom/internal/audit"
	"heirloom/internal/auth/device"
	"heirloom/internal/auth/token"
	"heirloom/internal/identity/models"
	dErrors "heirloom/pkg/domain-errors"
)

// invalidCredentials is the single error returned for both unknown email and
// wrong password, so responses never reveal which part failed.
var invalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")

// IdentityStore is the slice of the identity service authentication needs.
type IdentityStore interface {
	Lookup(ctx context.Context, email string) (*models.User, error)
	VerifyPassword(plain, hash string) bool
}

// TokenIssuer signs and decodes session tokens.
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
	Decode(tokenString string) (*token.Claims, error)
	TTL() time.Duration
}

// RevocationList denylists JTIs on logout. Optional: nil disables revocation
// and logout degrades to cookie clearing only.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// Notifier is the external collaborator carrying forgot-password
// notifications to the administrator channel. No password is reset here.
type Notifier interface {
	NotifyPasswordReset(ctx context.Context, adminEmail, username string) error
}

// AuditPublisher queues audit events without blocking.
type AuditPublisher interface {
	Emit(event audit.Event) bool
}

// Service orchestrates the authentication flows.
type Service struct {
	identity   IdentityStore
	issuer     TokenIssuer
	revocation RevocationList
	notifier   Notifier
	audits     AuditPublisher
	logger     *slog.Logger

	adminNotifyEmail string
}

type Option func(*Service)

func WithRevocationList(list RevocationList) Option {
	return func(s *Service) { s.revocation = list }
}

func WithNotifier(n Notifier, adminEmail string) Option {
	return func(s *Service) {
		s.notifier = n
		s.adminNotifyEmail = adminEmail
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.audits = p }
}

func New(identity IdentityStore, issuer TokenIssuer, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{identity: identity, issuer: issuer, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate verifies credentials and issues a session token. Unknown
// email and wrong password fail identically.
func (s *Service) Authenticate(ctx context.Context, email, password, userAgent string) (*models.User, string, error) {
	user, err := s.identity.Lookup(ctx, email)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to authenticate")
		}
		s.emitAuthFailed(ctx, email, userAgent)
		return nil, "", invalidCredentials
	}

	if !s.identity.VerifyPassword(password, user.PasswordHash) {
		s.emitAuthFailed(ctx, email, userAgent)
		return nil, "", invalidCredentials
	}

	signed, err := s.issuer.Issue(user)
	if err != nil {
		return nil, "", err
	}

	s.emit(ctx, audit.Event{
		Action:  string(audit.ActionLogin),
		Subject: user.Email,
		ActorID: user.ID.String(),
		Device:  device.ParseUserAgent(userAgent),
	})
	return user, signed, nil
}

// SessionTTL reports the validity window of issued tokens, used by the
// handler to set the cookie lifetime.
func (s *Service) SessionTTL() time.Duration {
	return s.issuer.TTL()
}

// Logout denylists the presented token's JTI for its remaining lifetime.
// An undecodable token still logs out successfully: the cookie is cleared by
// the handler and there is nothing valid left to revoke.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.issuer.Decode(tokenString)
	if err != nil {
		return nil
	}

	if s.revocation != nil && claims.ID != "" && claims.ExpiresAt != nil {
		remaining := time.Until(claims.ExpiresAt.Time)
		if remaining > 0 {
			if err := s.revocation.Revoke(ctx, claims.ID, remaining); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
			}
		}
	}

	s.emit(ctx, audit.Event{
		Action:  string(audit.ActionLogout),
		Subject: claims.Email,
		ActorID: claims.Subject,
	})
	return nil
}

// ForgotPassword dispatches a notification to the administrator channel. It
// does not reset any password. The response never reveals whether the
// username exists.
func (s *Service) ForgotPassword(ctx context.Context, username string) error {
	if username == "" {
		return dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if s.notifier == nil {
		return dErrors.New(dErrors.CodeInternal, "password reset channel is not configured")
	}

	if err := s.notifier.NotifyPasswordReset(ctx, s.adminNotifyEmail, username); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to dispatch password reset notification")
	}

	s.emit(ctx, audit.Event{
		Action:  string(audit.ActionPasswordResetRequested),
		Subject: username,
	})
	return nil
}

func (s *Service) emitAuthFailed(ctx context.Context, email, userAgent string) {
	s.emit(ctx, audit.Event{
		Action:  string(audit.ActionAuthFailed),
		Subject: models.NormalizeEmail(email),
		Device:  device.ParseUserAgent(userAgent),
	})
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audits == nil {
		return
	}
	if !s.audits.Emit(event) {
		s.logger.WarnContext(ctx, "audit event dropped", "action", event.Action)
	}
}
