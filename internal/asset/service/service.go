// Package service implements the asset repository operations: validated
// writes, optimistic-concurrency updates, the append-only history timeline,
// and the valuation snapshot.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"heirloom/internal/asset/models"
	assetstore "heirloom/internal/asset/store/asset"
	"heirloom/internal/audit"
	identitymodels "heirloom/internal/identity/models"
	"heirloom/internal/platform/metrics"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/sentinel"
)

// updateRetries bounds the re-read / re-merge / re-validate loop when a
// concurrent writer bumps the version between our read and our write.
const updateRetries = 3

// Store is the persistence contract the service drives.
type Store interface {
	Create(ctx context.Context, a *models.Asset) error
	Update(ctx context.Context, a *models.Asset) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	List(ctx context.Context, filter assetstore.ListFilter) ([]*models.Asset, error)
	Purge(ctx context.Context, id uuid.UUID) error
}

// PersonDirectory resolves owner references. The identity service doubles as
// the family person directory.
type PersonDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*identitymodels.User, error)
}

// AuditPublisher queues audit events without blocking.
type AuditPublisher interface {
	Emit(event audit.Event) bool
}

// Service orchestrates asset reads and writes.
type Service struct {
	store     Store
	directory PersonDirectory
	logger    *slog.Logger
	metrics   *metrics.Metrics
	audits    AuditPublisher
	clock     func() time.Time
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.audits = p }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

func New(store Store, directory PersonDirectory, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		directory: directory,
		logger:    logger,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and persists a new asset. Validation order: discriminator,
// variant-required fields, ownership invariants, then referential owner
// checks against the person directory.
func (s *Service) Create(ctx context.Context, a models.Asset, actorID string) (*models.Asset, error) {
	a.Normalize()
	if err := a.Validate(); err != nil {
		s.countViolation(err)
		return nil, err
	}
	if err := s.resolveOwners(ctx, a.Owners); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	a.ID = uuid.New()
	a.Version = 0
	a.History = nil
	a.CreatedAt = now
	a.UpdatedAt = now

	if err := s.store.Create(ctx, &a); err != nil {
		return nil, translateStoreErr(err, "failed to create asset")
	}

	if s.metrics != nil {
		s.metrics.AssetsCreated.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:  string(audit.ActionAssetCreated),
		Subject: a.ID.String(),
		ActorID: actorID,
		Details: fmt.Sprintf("%s %q", a.Type, a.Title),
	})
	return &a, nil
}

// Update merges the patch against the freshest stored state and re-runs
// every invariant. A version conflict with a concurrent writer triggers a
// bounded re-read and re-merge so both edits are validated against the state
// that actually wins.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch models.AssetPatch, actorID string) (*models.Asset, error) {
	updated, err := s.mutate(ctx, id, func(a *models.Asset) error {
		*a = patch.Apply(*a)
		a.Normalize()
		if err := a.Validate(); err != nil {
			s.countViolation(err)
			return err
		}
		if patch.TouchesOwners() {
			return s.resolveOwners(ctx, a.Owners)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AssetsUpdated.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:  string(audit.ActionAssetUpdated),
		Subject: id.String(),
		ActorID: actorID,
	})
	return updated, nil
}

// Delete archives the asset. The record stays readable; nothing is removed.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actorID string) (*models.Asset, error) {
	updated, err := s.mutate(ctx, id, func(a *models.Asset) error {
		a.CurrentStatus = models.StatusArchived
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Action:  string(audit.ActionAssetArchived),
		Subject: id.String(),
		ActorID: actorID,
	})
	return updated, nil
}

// Purge removes the asset permanently. The caller must echo the asset id as
// confirmation; anything else refuses the operation.
func (s *Service) Purge(ctx context.Context, id uuid.UUID, confirm, actorID string) error {
	if confirm != id.String() {
		return dErrors.New(dErrors.CodeValidation, "confirmation must match the asset id")
	}
	if err := s.store.Purge(ctx, id); err != nil {
		return translateStoreErr(err, "failed to purge asset")
	}

	s.emit(ctx, audit.Event{
		Action:  string(audit.ActionAssetPurged),
		Subject: id.String(),
		ActorID: actorID,
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err, "failed to load asset")
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, filter assetstore.ListFilter) ([]*models.Asset, error) {
	out, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, translateStoreErr(err, "failed to list assets")
	}
	return out, nil
}

// AppendHistory adds one immutable entry to the asset's timeline. There is
// no edit or delete counterpart; insertion order is the canonical order.
func (s *Service) AppendHistory(ctx context.Context, id uuid.UUID, entry models.HistoryEntry, actorID string) (*models.Asset, error) {
	if entry.Action == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "history action is required")
	}
	if entry.Date.IsZero() {
		entry.Date = s.clock().UTC()
	}
	if entry.Actor == "" {
		entry.Actor = actorID
	}

	updated, err := s.mutate(ctx, id, func(a *models.Asset) error {
		a.History = append(a.History, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Action:  string(audit.ActionHistoryAppended),
		Subject: id.String(),
		ActorID: actorID,
		Details: entry.Action,
	})
	return updated, nil
}

// RecordValuation replaces the current valuation snapshot. It deliberately
// appends nothing to the history timeline; callers wanting an audit trail of
// valuation changes follow up with AppendHistory.
func (s *Service) RecordValuation(ctx context.Context, id uuid.UUID, valuation models.ValuationRecord, actorID string) (*models.Asset, error) {
	if valuation.MarketValue <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "valuation.marketValue must be positive")
	}

	updated, err := s.mutate(ctx, id, func(a *models.Asset) error {
		v := valuation
		a.Valuation = &v
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Action:  string(audit.ActionValuationRecorded),
		Subject: id.String(),
		ActorID: actorID,
	})
	return updated, nil
}

// mutate runs the read-modify-write cycle under the store's version guard.
// Each conflicted attempt re-reads the freshest state and re-applies the
// mutation so invariants are always checked against current data.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, apply func(*models.Asset) error) (*models.Asset, error) {
	var lastErr error
	for attempt := 0; attempt < updateRetries; attempt++ {
		a, err := s.store.FindByID(ctx, id)
		if err != nil {
			return nil, translateStoreErr(err, "failed to load asset")
		}

		if err := apply(a); err != nil {
			return nil, err
		}
		a.UpdatedAt = s.clock().UTC()

		err = s.store.Update(ctx, a)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, translateStoreErr(err, "failed to update asset")
		}

		lastErr = err
		if s.metrics != nil {
			s.metrics.UpdateConflictsTotal.Inc()
		}
		s.logger.WarnContext(ctx, "asset version conflict, retrying",
			"asset_id", id.String(),
			"attempt", attempt+1,
		)
	}
	return nil, dErrors.Wrap(lastErr, dErrors.CodeConflict, "asset was modified concurrently, retry the update")
}

// resolveOwners confirms every ownerId exists in the person directory. The
// lookups fan out concurrently; the first failure cancels the rest.
func (s *Service) resolveOwners(ctx context.Context, owners []models.OwnershipShare) error {
	if len(owners) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, share := range owners {
		g.Go(func() error {
			if _, err := s.directory.Get(gctx, share.OwnerID); err != nil {
				if dErrors.HasCode(err, dErrors.CodeNotFound) {
					return dErrors.New(dErrors.CodeValidation,
						fmt.Sprintf("owner %s does not resolve in the person directory", share.OwnerID))
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve owner")
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) countViolation(err error) {
	if s.metrics != nil && dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		s.metrics.OwnershipViolations.Inc()
	}
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
		return dErrors.New(dErrors.CodeNotFound, "asset not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
