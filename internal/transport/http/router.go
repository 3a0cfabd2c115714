// Package http assembles the HTTP surface: middleware chain, public
// endpoints, and the authenticated API routes.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	assethandler "heirloom/internal/asset/handler"
	authhandler "heirloom/internal/auth/handler"
	documenthandler "heirloom/internal/document/handler"
	identityhandler "heirloom/internal/identity/handler"
	identitymodels "heirloom/internal/identity/models"
	"heirloom/internal/platform/middleware"
	"heirloom/pkg/platform/httputil"
)

const requestTimeout = 30 * time.Second

// HealthCheck probes one dependency. Name keys the result in the health
// response.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Deps carries everything the router wires together.
type Deps struct {
	Logger     *slog.Logger
	Auth       *authhandler.Handler
	Assets     *assethandler.Handler
	Persons    *identityhandler.Handler
	Documents  *documenthandler.Handler
	Validator  middleware.TokenValidator
	Revocation middleware.RevocationChecker
	Health     []HealthCheck
}

// New builds the router. The edge gate runs on every request; the API layer
// gate wraps the authenticated routes; admin-only mutations are gated per
// route group inside each handler.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.SessionPresence())

	r.Get("/healthz", healthHandler(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/login", loginPlaceholder)

	deps.Auth.Register(r)

	adminOnly := middleware.RequireRole(string(identitymodels.RoleAdmin), deps.Logger)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Revocation, deps.Logger))
		deps.Assets.Register(r, adminOnly)
		deps.Persons.Register(r, adminOnly)
		deps.Documents.Register(r, adminOnly)
	})

	return r
}

// loginPlaceholder keeps the redirect target resolvable. The real login page
// is served by the external rendering surface in front of this API.
func loginPlaceholder(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Sign in at POST /api/auth/login\n"))
}

func healthHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := make(map[string]string, len(checks))
		healthy := true
		for _, check := range checks {
			if err := check.Probe(r.Context()); err != nil {
				results[check.Name] = err.Error()
				healthy = false
				continue
			}
			results[check.Name] = "ok"
		}

		status := http.StatusOK
		overall := "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status": overall,
			"checks": results,
		})
	}
}
