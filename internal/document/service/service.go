// Package service implements document metadata management with the
// referential guarantee that every document points at an existing asset.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	assetmodels "heirloom/internal/asset/models"
	"heirloom/internal/audit"
	"heirloom/internal/document/models"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/sentinel"
)

// Store is the persistence contract for document metadata.
type Store interface {
	Create(ctx context.Context, d *models.Document) error
	Update(ctx context.Context, d *models.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AssetResolver confirms the referenced asset exists.
type AssetResolver interface {
	Get(ctx context.Context, id uuid.UUID) (*assetmodels.Asset, error)
}

// AuditPublisher queues audit events without blocking.
type AuditPublisher interface {
	Emit(event audit.Event) bool
}

// Service orchestrates document reads and writes.
type Service struct {
	store  Store
	assets AssetResolver
	logger *slog.Logger
	audits AuditPublisher
	clock  func() time.Time
}

type Option func(*Service)

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.audits = p }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

func New(store Store, assets AssetResolver, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, assets: assets, logger: logger, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the metadata, confirms the asset reference resolves, and
// persists the record.
func (s *Service) Create(ctx context.Context, d models.Document, actorID string) (*models.Document, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.assets.Get(ctx, d.AssetID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeValidation, "assetId does not reference an existing asset")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve asset reference")
	}

	now := s.clock().UTC()
	d.ID = uuid.New()
	d.CreatedAt = now
	d.UpdatedAt = now

	if err := s.store.Create(ctx, &d); err != nil {
		return nil, translateStoreErr(err, "failed to create document")
	}

	s.emit(ctx, audit.Event{
		Action:  string(audit.ActionDocumentCreated),
		Subject: d.ID.String(),
		ActorID: actorID,
		Details: d.Title,
	})
	return &d, nil
}

// UpdateRequest is a partial update. The asset reference is fixed at
// creation and cannot be repointed.
type UpdateRequest struct {
	Title      *string         `json:"title,omitempty"`
	Type       *models.DocType `json:"docType,omitempty"`
	FileName   *string         `json:"fileName,omitempty"`
	StorageRef *string         `json:"storageRef,omitempty"`
	Notes      *string         `json:"notes,omitempty"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest, actorID string) (*models.Document, error) {
	d, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err, "failed to load document")
	}

	if req.Title != nil {
		d.Title = *req.Title
	}
	if req.Type != nil {
		d.Type = *req.Type
	}
	if req.FileName != nil {
		d.FileName = *req.FileName
	}
	if req.StorageRef != nil {
		d.StorageRef = *req.StorageRef
	}
	if req.Notes != nil {
		d.Notes = *req.Notes
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	d.UpdatedAt = s.clock().UTC()

	if err := s.store.Update(ctx, d); err != nil {
		return nil, translateStoreErr(err, "failed to update document")
	}

	s.emit(ctx, audit.Event{
		Action:  string(audit.ActionDocumentUpdated),
		Subject: d.ID.String(),
		ActorID: actorID,
	})
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	d, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err, "failed to load document")
	}
	return d, nil
}

func (s *Service) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.Document, error) {
	out, err := s.store.ListByAsset(ctx, assetID)
	if err != nil {
		return nil, translateStoreErr(err, "failed to list documents")
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, actorID string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return translateStoreErr(err, "failed to delete document")
	}

	s.emit(ctx, audit.Event{
		Action:  string(audit.ActionDocumentDeleted),
		Subject: id.String(),
		ActorID: actorID,
	})
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audits == nil {
		return
	}
	if !s.audits.Emit(event) {
		s.logger.WarnContext(ctx, "audit event dropped", "action", event.Action)
	}
}

func translateStoreErr(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
