package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"heirloom/internal/asset/models"
	assetstore "heirloom/internal/asset/store/asset"
	identitymodels "heirloom/internal/identity/models"
	identityservice "heirloom/internal/identity/service"
	userstore "heirloom/internal/identity/store/user"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/sentinel"
)

// conflictStore wraps the in-memory store and fails the first n updates with
// a version conflict, simulating a concurrent writer.
type conflictStore struct {
	*assetstore.InMemory
	conflictsLeft int
}

func (s *conflictStore) Update(ctx context.Context, a *models.Asset) error {
	if s.conflictsLeft > 0 {
		s.conflictsLeft--
		return sentinel.ErrConflict
	}
	return s.InMemory.Update(ctx, a)
}

type AssetServiceSuite struct {
	suite.Suite
	now      time.Time
	store    *assetstore.InMemory
	identity *identityservice.Service
	svc      *Service
	ownerA   uuid.UUID
	ownerB   uuid.UUID
}

func (s *AssetServiceSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := userstore.NewInMemory()
	s.identity = identityservice.New(users, logger)

	for i, owner := range []struct {
		name  string
		email string
		dest  *uuid.UUID
	}{
		{"Owner A", "owner.a@example.com", &s.ownerA},
		{"Owner B", "owner.b@example.com", &s.ownerB},
	} {
		u, err := s.identity.Create(context.Background(), identityservice.CreateUserRequest{
			FullName: owner.name,
			Email:    owner.email,
			Password: "password123",
			Role:     identitymodels.RoleViewer,
		}, "")
		s.Require().NoError(err, "owner %d", i)
		*owner.dest = u.ID
	}

	s.store = assetstore.NewInMemory()
	s.svc = New(s.store, s.identity, logger, WithClock(func() time.Time { return s.now }))
}

func TestAssetServiceSuite(t *testing.T) {
	suite.Run(t, new(AssetServiceSuite))
}

func (s *AssetServiceSuite) landPlot() models.Asset {
	return models.Asset{
		Type:       models.TypeLandPlot,
		Title:      "Village paddy land",
		Dimensions: &models.Dimensions{AreaSqM: 2400, SurveyNumber: "BS-118"},
		Owners: []models.OwnershipShare{
			{OwnerID: s.ownerA, Percentage: 50, OwnershipType: "inherited"},
			{OwnerID: s.ownerB, Percentage: 50, OwnershipType: "inherited"},
		},
	}
}

func (s *AssetServiceSuite) TestCreate() {
	s.Run("valid asset is persisted with id, version zero, and timestamps", func() {
		created, err := s.svc.Create(context.Background(), s.landPlot(), "actor")
		s.Require().NoError(err)
		s.NotEqual(uuid.Nil, created.ID)
		s.Equal(int64(0), created.Version)
		s.Equal(s.now, created.CreatedAt)
		s.Equal(models.StatusActive, created.CurrentStatus)

		stored, err := s.svc.Get(context.Background(), created.ID)
		s.Require().NoError(err)
		s.Equal(created.Title, stored.Title)
	})

	s.Run("vehicle with ownership sum 110 fails the invariant", func() {
		a := models.Asset{
			Type:         models.TypeVehicle,
			Title:        "Family sedan",
			Specs:        &models.VehicleSpecs{Make: "Toyota", Model: "Corolla"},
			Registration: &models.Registration{PlateNumber: "DHA-11-2233"},
			Owners: []models.OwnershipShare{
				{OwnerID: s.ownerA, Percentage: 60},
				{OwnerID: s.ownerB, Percentage: 50},
			},
		}

		_, err := s.svc.Create(context.Background(), a, "actor")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("owner missing from the person directory fails validation", func() {
		a := s.landPlot()
		a.Owners = []models.OwnershipShare{{OwnerID: uuid.New(), Percentage: 100}}

		_, err := s.svc.Create(context.Background(), a, "actor")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "person directory")
	})

	s.Run("client-supplied history is discarded on create", func() {
		a := s.landPlot()
		a.History = []models.HistoryEntry{{Action: "forged", Date: s.now}}

		created, err := s.svc.Create(context.Background(), a, "actor")
		s.Require().NoError(err)
		s.Empty(created.History)
	})
}

func (s *AssetServiceSuite) TestUpdate() {
	created, err := s.svc.Create(context.Background(), s.landPlot(), "actor")
	s.Require().NoError(err)

	s.Run("patch merges against the freshest stored state", func() {
		title := "Village paddy land (renamed)"
		updated, err := s.svc.Update(context.Background(), created.ID, models.AssetPatch{Title: &title}, "actor")
		s.Require().NoError(err)
		s.Equal(title, updated.Title)
		s.Equal(created.Owners, updated.Owners)
		s.Equal(int64(1), updated.Version)
	})

	s.Run("patch pushing the ownership sum over 100 is rejected", func() {
		owners := []models.OwnershipShare{
			{OwnerID: s.ownerA, Percentage: 70},
			{OwnerID: s.ownerB, Percentage: 40},
		}
		_, err := s.svc.Update(context.Background(), created.ID, models.AssetPatch{Owners: &owners}, "actor")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("unknown asset is not found", func() {
		title := "x"
		_, err := s.svc.Update(context.Background(), uuid.New(), models.AssetPatch{Title: &title}, "actor")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *AssetServiceSuite) TestUpdateRetriesOnConflict() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.Run("transient conflict is retried against fresh state", func() {
		store := &conflictStore{InMemory: s.store, conflictsLeft: 1}
		svc := New(store, s.identity, logger, WithClock(func() time.Time { return s.now }))

		created, err := svc.Create(context.Background(), s.landPlot(), "actor")
		s.Require().NoError(err)

		title := "Updated after retry"
		updated, err := svc.Update(context.Background(), created.ID, models.AssetPatch{Title: &title}, "actor")
		s.Require().NoError(err)
		s.Equal(title, updated.Title)
	})

	s.Run("persistent conflict surfaces after bounded retries", func() {
		store := &conflictStore{InMemory: s.store, conflictsLeft: updateRetries + 1}
		svc := New(store, s.identity, logger, WithClock(func() time.Time { return s.now }))

		created, err := svc.Create(context.Background(), s.landPlot(), "actor")
		s.Require().NoError(err)

		title := "Never lands"
		_, err = svc.Update(context.Background(), created.ID, models.AssetPatch{Title: &title}, "actor")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *AssetServiceSuite) TestDeleteAndPurge() {
	created, err := s.svc.Create(context.Background(), s.landPlot(), "actor")
	s.Require().NoError(err)

	s.Run("delete archives instead of removing", func() {
		archived, err := s.svc.Delete(context.Background(), created.ID, "actor")
		s.Require().NoError(err)
		s.Equal(models.StatusArchived, archived.CurrentStatus)

		stored, err := s.svc.Get(context.Background(), created.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusArchived, stored.CurrentStatus)
	})

	s.Run("purge refuses a mismatched confirmation", func() {
		err := s.svc.Purge(context.Background(), created.ID, "wrong", "actor")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("purge with the id echoed removes the record", func() {
		s.Require().NoError(s.svc.Purge(context.Background(), created.ID, created.ID.String(), "actor"))

		_, err := s.svc.Get(context.Background(), created.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *AssetServiceSuite) TestHistory() {
	created, err := s.svc.Create(context.Background(), s.landPlot(), "actor")
	s.Require().NoError(err)

	s.Run("entries append in order and earlier entries are untouched", func() {
		first, err := s.svc.AppendHistory(context.Background(), created.ID,
			models.HistoryEntry{Action: "mutation filed", Details: "submitted at land office"}, "actor")
		s.Require().NoError(err)
		s.Require().Len(first.History, 1)

		second, err := s.svc.AppendHistory(context.Background(), created.ID,
			models.HistoryEntry{Action: "mutation approved"}, "actor")
		s.Require().NoError(err)
		s.Require().Len(second.History, 2)
		s.Equal("mutation filed", second.History[0].Action)
		s.Equal("mutation approved", second.History[1].Action)
	})

	s.Run("entry without an action is rejected", func() {
		_, err := s.svc.AppendHistory(context.Background(), created.ID, models.HistoryEntry{}, "actor")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing date and actor are stamped", func() {
		updated, err := s.svc.AppendHistory(context.Background(), created.ID,
			models.HistoryEntry{Action: "tax paid"}, "actor-7")
		s.Require().NoError(err)

		last := updated.History[len(updated.History)-1]
		s.Equal(s.now, last.Date)
		s.Equal("actor-7", last.Actor)
	})
}

func (s *AssetServiceSuite) TestRecordValuation() {
	created, err := s.svc.Create(context.Background(), s.landPlot(), "actor")
	s.Require().NoError(err)

	s.Run("snapshot replaces the previous one without touching history", func() {
		v1 := models.ValuationRecord{MarketValue: 4_000_000, Currency: "BDT", Source: "local broker"}
		updated, err := s.svc.RecordValuation(context.Background(), created.ID, v1, "actor")
		s.Require().NoError(err)
		s.Require().NotNil(updated.Valuation)
		s.Equal(float64(4_000_000), updated.Valuation.MarketValue)

		v2 := models.ValuationRecord{MarketValue: 5_500_000, Currency: "BDT", Source: "government survey"}
		updated, err = s.svc.RecordValuation(context.Background(), created.ID, v2, "actor")
		s.Require().NoError(err)
		s.Equal(float64(5_500_000), updated.Valuation.MarketValue)
		s.Equal("government survey", updated.Valuation.Source)
		s.Empty(updated.History)
	})

	s.Run("non-positive market value is rejected", func() {
		_, err := s.svc.RecordValuation(context.Background(), created.ID, models.ValuationRecord{}, "actor")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
