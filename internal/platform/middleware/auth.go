package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/httputil"
)

// SessionCookieName is the single fixed-name cookie carrying the signed
// session token. There is no server-side session table; the token is the
// sole source of identity and role during a request.
const SessionCookieName = "heirloom_session"

// Claims represents the identity the token validator extracts from a
// verified session token.
type Claims struct {
	UserID string
	Email  string
	Role   string
	JTI    string
}

// TokenValidator verifies a session token's signature and expiry.
type TokenValidator interface {
	Decode(tokenString string) (*Claims, error)
}

// RevocationChecker reports whether a token's JTI has been denylisted by a
// logout. A nil checker degrades to pure stateless validation.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type contextKeyUserID struct{}
type contextKeyEmail struct{}
type contextKeyRole struct{}

var (
	ContextKeyUserID = contextKeyUserID{}
	ContextKeyEmail  = contextKeyEmail{}
	ContextKeyRole   = contextKeyRole{}
)

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(ctx context.Context) string {
	v, ok := ctx.Value(ContextKeyUserID).(string)
	if !ok {
		return ""
	}
	return v
}

// GetEmail retrieves the authenticated email from the context.
func GetEmail(ctx context.Context) string {
	v, ok := ctx.Value(ContextKeyEmail).(string)
	if !ok {
		return ""
	}
	return v
}

// GetRole retrieves the authenticated role from the context. The value is
// always re-derived from the verified token, never from client input.
func GetRole(ctx context.Context) string {
	v, ok := ctx.Value(ContextKeyRole).(string)
	if !ok {
		return ""
	}
	return v
}

// PublicPath reports whether a path is reachable without a session cookie:
// the login surface, health and metrics endpoints, and static assets.
func PublicPath(path string) bool {
	switch path {
	case "/login", "/healthz", "/metrics",
		"/api/auth/login", "/api/auth/forgot-password":
		return true
	}
	return strings.HasPrefix(path, "/static/")
}

// SessionPresence is the edge layer of the access gate. It checks cookie
// presence only - no cryptographic validation - and is cheap enough to run on
// every request. Protected paths without a session cookie are redirected to
// the login page (browsers) or answered 401 (API callers), with no side
// effects either way.
func SessionPresence() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if PublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if _, err := r.Cookie(SessionCookieName); err != nil {
				if strings.HasPrefix(r.URL.Path, "/api/") {
					httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
					return
				}
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth is the authoritative API layer of the access gate. It decodes
// and verifies the session token from the cookie, consults the revocation
// denylist, and places the verified identity into the request context.
func RequireAuth(validator TokenValidator, revocation RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - missing session cookie",
					"path", r.URL.Path,
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
				return
			}

			claims, err := validator.Decode(cookie.Value)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired session"))
				return
			}

			if revocation != nil && claims.JTI != "" {
				revoked, err := revocation.IsRevoked(ctx, claims.JTI)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check session revocation",
						"error", err,
						"request_id", GetRequestID(ctx),
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to validate session"))
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - session revoked",
						"jti", claims.JTI,
						"request_id", GetRequestID(ctx),
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "session has been revoked"))
					return
				}
			}

			ctx = context.WithValue(ctx, ContextKeyUserID, claims.UserID)
			ctx = context.WithValue(ctx, ContextKeyEmail, claims.Email)
			ctx = context.WithValue(ctx, ContextKeyRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates mutating operations behind a role. It must run after
// RequireAuth so the role comes from the verified token.
func RequireRole(role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if GetRole(ctx) != role {
				logger.WarnContext(ctx, "forbidden - insufficient role",
					"required", role,
					"actual", GetRole(ctx),
					"path", r.URL.Path,
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
