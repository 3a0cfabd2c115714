// Package seed loads demo data for local development. Plain data only; all
// writes go through the regular services so every invariant still applies.
package seed

import (
	"context"
	"log/slog"

	assetmodels "heirloom/internal/asset/models"
	assetservice "heirloom/internal/asset/service"
	assetstore "heirloom/internal/asset/store/asset"
	identitymodels "heirloom/internal/identity/models"
	identityservice "heirloom/internal/identity/service"
	dErrors "heirloom/pkg/domain-errors"
)

// Run creates the demo directory and a couple of demo assets. Safe to call
// repeatedly: existing emails are skipped.
func Run(ctx context.Context, identity *identityservice.Service, assets *assetservice.Service, logger *slog.Logger) error {
	demoUsers := []identityservice.CreateUserRequest{
		{FullName: "Saadi Rahman", Email: "saadi@example.com", Password: "saadi123", Role: identitymodels.RoleAdmin},
		{FullName: "Farhana Rahman", Email: "farhana@example.com", Password: "farhana123", Role: identitymodels.RoleViewer},
	}

	created := make(map[string]*identitymodels.User, len(demoUsers))
	for _, req := range demoUsers {
		u, err := identity.Create(ctx, req, "seed")
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeConflict) {
				existing, lookupErr := identity.Lookup(ctx, req.Email)
				if lookupErr != nil {
					return lookupErr
				}
				created[req.Email] = existing
				continue
			}
			return err
		}
		created[req.Email] = u
		logger.Info("seeded demo user", "email", u.Email, "role", u.Role)
	}

	existing, err := assets.List(ctx, assetstore.ListFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	saadi := created["saadi@example.com"]
	farhana := created["farhana@example.com"]

	demoAssets := []assetmodels.Asset{
		{
			Type:  assetmodels.TypeLandPlot,
			Title: "Village paddy land, Comilla",
			Location: &assetmodels.Location{
				District: "Comilla",
				Country:  "Bangladesh",
			},
			Dimensions: &assetmodels.Dimensions{AreaSqM: 2400, SurveyNumber: "BS-118"},
			Owners: []assetmodels.OwnershipShare{
				{OwnerID: saadi.ID, Percentage: 60, OwnershipType: "inherited"},
				{OwnerID: farhana.ID, Percentage: 40, OwnershipType: "inherited"},
			},
			Tags: []string{"agricultural", "ancestral"},
		},
		{
			Type:  assetmodels.TypeVehicle,
			Title: "Family sedan",
			Specs: &assetmodels.VehicleSpecs{
				Make:  "Toyota",
				Model: "Corolla",
				Year:  2019,
				Color: "Silver",
			},
			Registration: &assetmodels.Registration{PlateNumber: "DHA-GA-11-2233", Authority: "BRTA"},
			Owners: []assetmodels.OwnershipShare{
				{OwnerID: saadi.ID, Percentage: 100, OwnershipType: "purchased"},
			},
		},
	}

	for _, a := range demoAssets {
		if _, err := assets.Create(ctx, a, "seed"); err != nil {
			return err
		}
		logger.Info("seeded demo asset", "title", a.Title)
	}
	return nil
}
