// Package handler exposes the authentication endpoints and owns the session
// cookie attributes.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"heirloom/internal/identity/models"
	"heirloom/internal/platform/metrics"
	"heirloom/internal/platform/middleware"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/httputil"
)

// AuthService is the slice of the auth service the handler consumes.
type AuthService interface {
	Authenticate(ctx context.Context, email, password, userAgent string) (*models.User, string, error)
	Logout(ctx context.Context, tokenString string) error
	ForgotPassword(ctx context.Context, username string) error
	SessionTTL() time.Duration
}

// Handler handles /api/auth endpoints.
type Handler struct {
	auth         AuthService
	logger       *slog.Logger
	metrics      *metrics.Metrics
	cookieSecure bool
}

func New(auth AuthService, logger *slog.Logger, m *metrics.Metrics, cookieSecure bool) *Handler {
	return &Handler{auth: auth, logger: logger, metrics: m, cookieSecure: cookieSecure}
}

// Register mounts the auth routes. Login and forgot-password are public;
// logout requires nothing beyond cookie presence since it only clears state.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/auth/login", h.handleLogin)
	r.Post("/api/auth/logout", h.handleLogout)
	r.Post("/api/auth/forgot-password", h.handleForgotPassword)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "email and password are required"))
		return
	}

	user, signed, err := h.auth.Authenticate(ctx, req.Email, req.Password, r.UserAgent())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			if h.metrics != nil {
				h.metrics.AuthFailuresTotal.Inc()
			}
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "login failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "login failed"))
		return
	}

	http.SetCookie(w, h.sessionCookie(signed, h.auth.SessionTTL()))
	if h.metrics != nil {
		h.metrics.LoginsTotal.Inc()
	}

	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		ID:       user.ID.String(),
		FullName: user.FullName,
		Email:    user.Email,
		Role:     string(user.Role),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		if err := h.auth.Logout(ctx, cookie.Value); err != nil {
			h.logger.ErrorContext(ctx, "logout revocation failed",
				"error", err,
				"request_id", middleware.GetRequestID(ctx),
			)
			// The cookie is still cleared; the token simply outlives the
			// denylist attempt until expiry.
		}
	}

	http.SetCookie(w, h.expiredCookie())
	http.Redirect(w, r, "/login", http.StatusFound)
}

type forgotPasswordRequest struct {
	Username string `json:"username"`
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.auth.ForgotPassword(ctx, req.Username); err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "forgot-password dispatch failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to dispatch notification"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "notification dispatched"})
}

// sessionCookie builds the single session cookie. httpOnly and sameSite
// strict always; secure in production so the token never crosses plain HTTP.
func (h *Handler) sessionCookie(value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (h *Handler) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}
