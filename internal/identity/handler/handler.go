// Package handler exposes the person directory endpoints. Directory entries
// double as login identities, so responses never include password material.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"heirloom/internal/identity/models"
	"heirloom/internal/identity/service"
	"heirloom/internal/platform/middleware"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/httputil"
)

// DirectoryService is the slice of the identity service the handler consumes.
type DirectoryService interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, req service.CreateUserRequest, actorID string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, req service.UpdateUserRequest, actorID string) (*models.User, error)
	MarkDeceased(ctx context.Context, id uuid.UUID, actorID string) (*models.User, error)
}

// Handler handles /api/persons endpoints.
type Handler struct {
	directory DirectoryService
	logger    *slog.Logger
}

func New(directory DirectoryService, logger *slog.Logger) *Handler {
	return &Handler{directory: directory, logger: logger}
}

// Register mounts the person routes. Reads are open to any authenticated
// role; mutations are wrapped in the admin gate.
func (h *Handler) Register(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Route("/api/persons", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", h.handleCreate)
			r.Patch("/{id}", h.handleUpdate)
			r.Delete("/{id}", h.handleDecease)
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.List(r.Context())
	if err != nil {
		h.writeErr(w, r, err, "list persons failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	u, err := h.directory.Get(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err, "load person failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	u, err := h.directory.Create(r.Context(), req, middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeErr(w, r, err, "create person failed")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req service.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	u, err := h.directory.Update(r.Context(), id, req, middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeErr(w, r, err, "update person failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

// handleDecease is the directory's delete: the person is marked deceased and
// the record stays, so ownership shares keep resolving.
func (h *Handler) handleDecease(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	u, err := h.directory.MarkDeceased(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeErr(w, r, err, "mark person deceased failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid person id"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(r.Context(), msg,
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
	}
	httputil.WriteError(w, err)
}
