package models

import (
	"fmt"

	"github.com/google/uuid"

	dErrors "heirloom/pkg/domain-errors"
)

// OwnershipShare is one identity's fractional claim on an asset.
type OwnershipShare struct {
	OwnerID       uuid.UUID `json:"ownerId"`
	Percentage    float64   `json:"percentage"`
	OwnershipType string    `json:"ownershipType,omitempty"`
}

// maxTotalPercentage bounds the combined claims on one asset. The sum may
// fall short of 100 when part of an estate is unassigned, but never exceed it.
const maxTotalPercentage = 100

// ValidateShares checks every ownership invariant: each percentage in
// (0, 100], no owner listed twice, and the sum at most 100. It runs on every
// create or update that touches the owners list.
func ValidateShares(shares []OwnershipShare) error {
	seen := make(map[uuid.UUID]struct{}, len(shares))
	var total float64

	for i, share := range shares {
		if share.OwnerID == uuid.Nil {
			return dErrors.New(dErrors.CodeInvariantViolation,
				fmt.Sprintf("owners[%d].ownerId is required", i))
		}
		if share.Percentage <= 0 || share.Percentage > maxTotalPercentage {
			return dErrors.New(dErrors.CodeInvariantViolation,
				fmt.Sprintf("owners[%d].percentage must be in (0, 100], got %g", i, share.Percentage))
		}
		if _, dup := seen[share.OwnerID]; dup {
			return dErrors.New(dErrors.CodeInvariantViolation,
				fmt.Sprintf("owner %s is listed more than once", share.OwnerID))
		}
		seen[share.OwnerID] = struct{}{}
		total += share.Percentage
	}

	if total > maxTotalPercentage {
		return dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("ownership percentages sum to %g, exceeding 100", total))
	}
	return nil
}
