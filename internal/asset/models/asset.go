// Package models defines the polymorphic asset record: a common envelope
// plus exactly one variant payload selected by the assetType discriminator.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "heirloom/pkg/domain-errors"
)

// AssetType discriminates the variant payload an asset carries.
type AssetType string

const (
	TypeLandPlot  AssetType = "land_plot"
	TypeHouse     AssetType = "house"
	TypeApartment AssetType = "apartment"
	TypeVehicle   AssetType = "vehicle"
)

func (t AssetType) Valid() bool {
	switch t {
	case TypeLandPlot, TypeHouse, TypeApartment, TypeVehicle:
		return true
	}
	return false
}

// Status is the lifecycle state of an asset. Deletion is a transition to
// StatusArchived; records are never removed outside an explicit purge.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisputed Status = "disputed"
	StatusSold     Status = "sold"
	StatusArchived Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusDisputed, StatusSold, StatusArchived:
		return true
	}
	return false
}

// Location is the envelope address block shared by every variant.
type Location struct {
	AddressLine string `json:"addressLine,omitempty"`
	City        string `json:"city,omitempty"`
	District    string `json:"district,omitempty"`
	Country     string `json:"country,omitempty"`
}

func (l *Location) empty() bool {
	return l == nil || (l.AddressLine == "" && l.City == "" && l.District == "" && l.Country == "")
}

// Dimensions is the land_plot variant payload.
type Dimensions struct {
	AreaSqM      float64 `json:"areaSqM"`
	Frontage     float64 `json:"frontage,omitempty"`
	Depth        float64 `json:"depth,omitempty"`
	SurveyNumber string  `json:"surveyNumber,omitempty"`
}

// Structure is the house and apartment variant payload.
type Structure struct {
	AreaSqM   float64 `json:"areaSqM"`
	Floors    int     `json:"floors,omitempty"`
	Bedrooms  int     `json:"bedrooms,omitempty"`
	Bathrooms int     `json:"bathrooms,omitempty"`
	YearBuilt int     `json:"yearBuilt,omitempty"`
}

// VehicleSpecs is half of the vehicle variant payload.
type VehicleSpecs struct {
	Make          string `json:"make"`
	Model         string `json:"model"`
	Year          int    `json:"year,omitempty"`
	Color         string `json:"color,omitempty"`
	EngineCC      int    `json:"engineCC,omitempty"`
	ChassisNumber string `json:"chassisNumber,omitempty"`
}

// Registration is the other half of the vehicle variant payload.
type Registration struct {
	PlateNumber     string     `json:"plateNumber"`
	Authority       string     `json:"authority,omitempty"`
	RegisteredUntil *time.Time `json:"registeredUntil,omitempty"`
}

// Acquisition records how the family came to hold the asset.
type Acquisition struct {
	Method    string     `json:"method,omitempty"`
	Date      *time.Time `json:"date,omitempty"`
	Price     float64    `json:"price,omitempty"`
	Currency  string     `json:"currency,omitempty"`
	FromParty string     `json:"fromParty,omitempty"`
}

// ValuationRecord is the single current valuation snapshot. It is not a
// timeline; valuation history exists only where callers append it to History.
type ValuationRecord struct {
	MarketValue  float64    `json:"marketValue"`
	Currency     string     `json:"currency,omitempty"`
	EstimateDate *time.Time `json:"estimateDate,omitempty"`
	Source       string     `json:"source,omitempty"`
}

// MutationTitle holds land-registry title and transfer paperwork state.
type MutationTitle struct {
	MutationStatus   string     `json:"mutationStatus,omitempty"`
	TitleDeedNumber  string     `json:"titleDeedNumber,omitempty"`
	KhatianNumber    string     `json:"khatianNumber,omitempty"`
	LastTransferDate *time.Time `json:"lastTransferDate,omitempty"`
}

// Compliance tracks tax and insurance standing.
type Compliance struct {
	TaxPaidUntil        *time.Time `json:"taxPaidUntil,omitempty"`
	InsurancePolicy     string     `json:"insurancePolicy,omitempty"`
	InsuranceValidUntil *time.Time `json:"insuranceValidUntil,omitempty"`
	Notes               string     `json:"notes,omitempty"`
}

// HistoryEntry is one append-only timeline record. Entries are immutable
// once written; insertion order is the canonical order.
type HistoryEntry struct {
	Date    time.Time `json:"date"`
	Action  string    `json:"action"`
	Details string    `json:"details,omitempty"`
	Actor   string    `json:"actor,omitempty"`
}

// Asset is the full record. Exactly one variant payload is populated,
// matching Type; payloads of non-selected variants are cleared on
// normalization and never interpreted.
type Asset struct {
	ID            uuid.UUID `json:"id"`
	Type          AssetType `json:"assetType"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Location      *Location `json:"location,omitempty"`
	CurrentStatus Status    `json:"currentStatus"`
	Tags          []string  `json:"tags,omitempty"`
	NotesInternal string    `json:"notesInternal,omitempty"`
	Flags         []string  `json:"flags,omitempty"`

	Dimensions   *Dimensions   `json:"dimensions,omitempty"`
	Structure    *Structure    `json:"structure,omitempty"`
	Specs        *VehicleSpecs `json:"specs,omitempty"`
	Registration *Registration `json:"registration,omitempty"`

	Owners      []OwnershipShare `json:"owners,omitempty"`
	Acquisition *Acquisition     `json:"acquisition,omitempty"`
	Valuation   *ValuationRecord `json:"valuation,omitempty"`
	Mutation    *MutationTitle   `json:"mutationTitle,omitempty"`
	Compliance  *Compliance      `json:"compliance,omitempty"`
	History     []HistoryEntry   `json:"history,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Normalize trims envelope strings, defaults the status, and clears every
// variant payload that does not belong to the discriminator so stray fields
// are dropped rather than interpreted.
func (a *Asset) Normalize() {
	a.Title = strings.TrimSpace(a.Title)
	a.Description = strings.TrimSpace(a.Description)
	if a.CurrentStatus == "" {
		a.CurrentStatus = StatusActive
	}

	switch a.Type {
	case TypeLandPlot:
		a.Structure, a.Specs, a.Registration = nil, nil, nil
	case TypeHouse, TypeApartment:
		a.Dimensions, a.Specs, a.Registration = nil, nil, nil
	case TypeVehicle:
		a.Dimensions, a.Structure = nil, nil
	}
	if a.Location.empty() {
		a.Location = nil
	}
}

// Validate enforces the structural invariants in a fixed order: the
// discriminator first, then envelope fields, then the variant-required
// fields, then the ownership invariants. Referential owner checks are the
// service's responsibility.
func (a *Asset) Validate() error {
	if a.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "assetType is required")
	}
	if !a.Type.Valid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("assetType %q is not recognized", a.Type))
	}

	if a.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if !a.CurrentStatus.Valid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("currentStatus %q is not recognized", a.CurrentStatus))
	}

	if err := a.validateVariant(); err != nil {
		return err
	}

	return ValidateShares(a.Owners)
}

func (a *Asset) validateVariant() error {
	switch a.Type {
	case TypeLandPlot:
		if a.Dimensions == nil {
			return dErrors.New(dErrors.CodeValidation, "dimensions is required for a land_plot asset")
		}
		if a.Dimensions.AreaSqM <= 0 {
			return dErrors.New(dErrors.CodeValidation, "dimensions.areaSqM must be positive")
		}
	case TypeHouse, TypeApartment:
		if a.Structure == nil {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("structure is required for a %s asset", a.Type))
		}
		if a.Structure.AreaSqM <= 0 {
			return dErrors.New(dErrors.CodeValidation, "structure.areaSqM must be positive")
		}
	case TypeVehicle:
		if a.Specs == nil {
			return dErrors.New(dErrors.CodeValidation, "specs is required for a vehicle asset")
		}
		if a.Specs.Make == "" {
			return dErrors.New(dErrors.CodeValidation, "specs.make is required")
		}
		if a.Specs.Model == "" {
			return dErrors.New(dErrors.CodeValidation, "specs.model is required")
		}
		if a.Registration == nil {
			return dErrors.New(dErrors.CodeValidation, "registration is required for a vehicle asset")
		}
		if a.Registration.PlateNumber == "" {
			return dErrors.New(dErrors.CodeValidation, "registration.plateNumber is required")
		}
	}
	return nil
}

// AssetPatch is a partial update. Nil fields leave the stored value
// untouched; the merge always runs against the freshest stored state.
type AssetPatch struct {
	Title         *string           `json:"title,omitempty"`
	Description   *string           `json:"description,omitempty"`
	Location      *Location         `json:"location,omitempty"`
	CurrentStatus *Status           `json:"currentStatus,omitempty"`
	Tags          *[]string         `json:"tags,omitempty"`
	NotesInternal *string           `json:"notesInternal,omitempty"`
	Flags         *[]string         `json:"flags,omitempty"`
	Dimensions    *Dimensions       `json:"dimensions,omitempty"`
	Structure     *Structure        `json:"structure,omitempty"`
	Specs         *VehicleSpecs     `json:"specs,omitempty"`
	Registration  *Registration     `json:"registration,omitempty"`
	Owners        *[]OwnershipShare `json:"owners,omitempty"`
	Acquisition   *Acquisition      `json:"acquisition,omitempty"`
	Mutation      *MutationTitle    `json:"mutationTitle,omitempty"`
	Compliance    *Compliance       `json:"compliance,omitempty"`
}

// TouchesOwners reports whether applying the patch changes the owners list.
func (p AssetPatch) TouchesOwners() bool {
	return p.Owners != nil
}

// Apply merges the patch into a copy of current and returns it. The asset
// type and the append-only history are never patchable.
func (p AssetPatch) Apply(current Asset) Asset {
	next := current

	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Location != nil {
		loc := *p.Location
		next.Location = &loc
	}
	if p.CurrentStatus != nil {
		next.CurrentStatus = *p.CurrentStatus
	}
	if p.Tags != nil {
		next.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.NotesInternal != nil {
		next.NotesInternal = *p.NotesInternal
	}
	if p.Flags != nil {
		next.Flags = append([]string(nil), (*p.Flags)...)
	}
	if p.Dimensions != nil {
		d := *p.Dimensions
		next.Dimensions = &d
	}
	if p.Structure != nil {
		st := *p.Structure
		next.Structure = &st
	}
	if p.Specs != nil {
		sp := *p.Specs
		next.Specs = &sp
	}
	if p.Registration != nil {
		reg := *p.Registration
		next.Registration = &reg
	}
	if p.Owners != nil {
		next.Owners = append([]OwnershipShare(nil), (*p.Owners)...)
	}
	if p.Acquisition != nil {
		acq := *p.Acquisition
		next.Acquisition = &acq
	}
	if p.Mutation != nil {
		mut := *p.Mutation
		next.Mutation = &mut
	}
	if p.Compliance != nil {
		c := *p.Compliance
		next.Compliance = &c
	}

	return next
}
