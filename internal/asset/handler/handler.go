// Package handler exposes the asset CRUD surface, the history and valuation
// endpoints, and the printable report projection.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"heirloom/internal/asset/models"
	assetstore "heirloom/internal/asset/store/asset"
	"heirloom/internal/platform/middleware"
	"heirloom/internal/report"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/httputil"
)

// AssetService is the slice of the asset service the handler consumes.
type AssetService interface {
	Create(ctx context.Context, a models.Asset, actorID string) (*models.Asset, error)
	Update(ctx context.Context, id uuid.UUID, patch models.AssetPatch, actorID string) (*models.Asset, error)
	Delete(ctx context.Context, id uuid.UUID, actorID string) (*models.Asset, error)
	Purge(ctx context.Context, id uuid.UUID, confirm, actorID string) error
	Get(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	List(ctx context.Context, filter assetstore.ListFilter) ([]*models.Asset, error)
	AppendHistory(ctx context.Context, id uuid.UUID, entry models.HistoryEntry, actorID string) (*models.Asset, error)
	RecordValuation(ctx context.Context, id uuid.UUID, valuation models.ValuationRecord, actorID string) (*models.Asset, error)
}

// Handler handles /api/assets endpoints.
type Handler struct {
	assets AssetService
	logger *slog.Logger
}

func New(assets AssetService, logger *slog.Logger) *Handler {
	return &Handler{assets: assets, logger: logger}
}

// Register mounts the asset routes. Reads are open to any authenticated
// role; mutations are wrapped in the admin gate.
func (h *Handler) Register(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Route("/api/assets", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Get("/{id}/report", h.handleReport)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", h.handleCreate)
			r.Patch("/{id}", h.handleUpdate)
			r.Delete("/{id}", h.handleDelete)
			r.Post("/{id}/purge", h.handlePurge)
			r.Post("/{id}/history", h.handleAppendHistory)
			r.Put("/{id}/valuation", h.handleRecordValuation)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var a models.Asset
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.assets.Create(r.Context(), a, middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeErr(w, r, err, "create asset failed")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var patch models.AssetPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	updated, err := h.assets.Update(r.Context(), id, patch, middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeErr(w, r, err, "update asset failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	archived, err := h.assets.Delete(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeErr(w, r, err, "archive asset failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, archived)
}

type purgeRequest struct {
	Confirm string `json:"confirm"`
}

func (h *Handler) handlePurge(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req purgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.assets.Purge(r.Context(), id, req.Confirm, middleware.GetUserID(r.Context())); err != nil {
		h.writeErr(w, r, err, "purge asset failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	a, err := h.assets.Get(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err, "load asset failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := assetstore.ListFilter{
		Type:   models.AssetType(r.URL.Query().Get("type")),
		Status: models.Status(r.URL.Query().Get("status")),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "unknown asset type filter"))
		return
	}
	if filter.Status != "" && !filter.Status.Valid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "unknown status filter"))
		return
	}

	out, err := h.assets.List(r.Context(), filter)
	if err != nil {
		h.writeErr(w, r, err, "list assets failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	a, err := h.assets.Get(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err, "load asset failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report.Project(a))
}

func (h *Handler) handleAppendHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var entry models.HistoryEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	updated, err := h.assets.AppendHistory(r.Context(), id, entry, middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeErr(w, r, err, "append history failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleRecordValuation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var valuation models.ValuationRecord
	if err := json.NewDecoder(r.Body).Decode(&valuation); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	updated, err := h.assets.RecordValuation(r.Context(), id, valuation, middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeErr(w, r, err, "record valuation failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid asset id"))
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
