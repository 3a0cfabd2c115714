// Package handler exposes the document metadata endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"heirloom/internal/document/models"
	"heirloom/internal/document/service"
	"heirloom/internal/platform/middleware"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/httputil"
)

// DocumentService is the slice of the document service the handler consumes.
type DocumentService interface {
	Create(ctx context.Context, d models.Document, actorID string) (*models.Document, error)
	Update(ctx context.Context, id uuid.UUID, req service.UpdateRequest, actorID string) (*models.Document, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.Document, error)
	Delete(ctx context.Context, id uuid.UUID, actorID string) error
}

// Handler handles /api/documents endpoints.
type Handler struct {
	documents DocumentService
	logger    *slog.Logger
}

func New(documents DocumentService, logger *slog.Logger) *Handler {
	return &Handler{documents: documents, logger: logger}
}

// Register mounts the document routes. Reads are open to any authenticated
// role; mutations are wrapped in the admin gate.
func (h *Handler) Register(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Route("/api/documents", func(r chi.Router) {
		r.Get("/", h.handleListByAsset)
		r.Get("/{id}", h.handleGet)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", h.handleCreate)
			r.Patch("/{id}", h.handleUpdate)
			r.Delete("/{id}", h.handleDelete)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var d models.Document
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.documents.Create(r.Context(), d, middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeErr(w, r, err, "create document failed")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req service.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	updated, err := h.documents.Update(r.Context(), id, req, middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeErr(w, r, err, "update document failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	d, err := h.documents.Get(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err, "load document failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

// handleListByAsset requires an assetId query parameter: documents only make
// sense in the context of the asset they describe.
func (h *Handler) handleListByAsset(w http.ResponseWriter, r *http.Request) {
	assetID, err := uuid.Parse(r.URL.Query().Get("assetId"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "assetId query parameter is required"))
		return
	}

	docs, err := h.documents.ListByAsset(r.Context(), assetID)
	if err != nil {
		h.writeErr(w, r, err, "list documents failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, docs)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.documents.Delete(r.Context(), id, middleware.GetUserID(r.Context())); err != nil {
		h.writeErr(w, r, err, "delete document failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid document id"))
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
