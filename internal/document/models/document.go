// Package models defines document metadata. Binary content lives outside
// the core; records here only describe and reference it.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "heirloom/pkg/domain-errors"
)

// DocType labels what kind of paperwork a document represents.
type DocType string

const (
	TypeDeed         DocType = "deed"
	TypeTaxReceipt   DocType = "tax_receipt"
	TypeInsurance    DocType = "insurance"
	TypeRegistration DocType = "registration"
	TypePhoto        DocType = "photo"
	TypeOther        DocType = "other"
)

func (t DocType) Valid() bool {
	switch t {
	case TypeDeed, TypeTaxReceipt, TypeInsurance, TypeRegistration, TypePhoto, TypeOther:
		return true
	}
	return false
}

// Document is metadata for one file attached to an asset.
type Document struct {
	ID          uuid.UUID `json:"id"`
	AssetID     uuid.UUID `json:"assetId"`
	Title       string    `json:"title"`
	Type        DocType   `json:"docType"`
	FileName    string    `json:"fileName,omitempty"`
	ContentType string    `json:"contentType,omitempty"`
	SizeBytes   int64     `json:"sizeBytes,omitempty"`
	// StorageRef locates the binary in whatever external store holds it.
	StorageRef  string    `json:"storageRef,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Validate checks the structural requirements. The asset reference is
// checked for existence by the service, not here.
func (d *Document) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	if d.AssetID == uuid.Nil {
		return dErrors.New(dErrors.CodeValidation, "assetId is required")
	}
	if d.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if d.Type == "" {
		d.Type = TypeOther
	}
	if !d.Type.Valid() {
		return dErrors.New(dErrors.CodeValidation, "docType is not recognized")
	}
	if d.SizeBytes < 0 {
		return dErrors.New(dErrors.CodeValidation, "sizeBytes must not be negative")
	}
	return nil
}
