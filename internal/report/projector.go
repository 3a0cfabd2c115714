// Package report flattens one asset into an ordered field list for an
// external rendering surface. Projection is a pure function of the asset:
// no I/O, no rendering decisions, byte-identical output for unchanged input.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"heirloom/internal/asset/models"
)

// Row is one printable line: a section heading, a field label, and the
// formatted value.
type Row struct {
	Section string `json:"section"`
	Field   string `json:"field"`
	Value   string `json:"value"`
}

// Section headings in their fixed output order. Variant sections appear
// between Location and Ownership depending on the asset type.
const (
	SectionBasic        = "Basic Information"
	SectionLocation     = "Location"
	SectionDimensions   = "Dimensions"
	SectionStructure    = "Structure"
	SectionVehicleSpecs = "Vehicle Specs"
	SectionRegistration = "Registration"
	SectionOwnership    = "Ownership"
	SectionAcquisition  = "Acquisition"
	SectionValuation    = "Valuation"
	SectionMutation     = "Mutation & Title"
	SectionCompliance   = "Compliance"
	SectionHistory      = "History Timeline"
	SectionTags         = "Tags"
	SectionNotes        = "Internal Notes"
)

const dateLayout = "2006-01-02"

// naDate is the placeholder for an absent date field. Dates are the one
// exception to the omit-when-empty policy.
const naDate = "N/A"

// Project flattens the asset. Empty fields are omitted; date fields render
// as "N/A" when absent. All four variants flow through this one function.
func Project(a *models.Asset) []Row {
	var b builder

	b.add(SectionBasic, "Title", a.Title)
	b.add(SectionBasic, "Type", string(a.Type))
	b.add(SectionBasic, "Status", string(a.CurrentStatus))
	b.add(SectionBasic, "Description", a.Description)

	if loc := a.Location; loc != nil {
		b.add(SectionLocation, "Address", loc.AddressLine)
		b.add(SectionLocation, "City", loc.City)
		b.add(SectionLocation, "District", loc.District)
		b.add(SectionLocation, "Country", loc.Country)
	}

	b.projectVariant(a)

	for _, share := range a.Owners {
		b.add(SectionOwnership, share.OwnerID.String(), formatShare(share))
	}

	if acq := a.Acquisition; acq != nil {
		b.add(SectionAcquisition, "Method", acq.Method)
		b.addDate(SectionAcquisition, "Date", acq.Date)
		b.addMoney(SectionAcquisition, "Price", acq.Price, acq.Currency)
		b.add(SectionAcquisition, "From", acq.FromParty)
	}

	if v := a.Valuation; v != nil {
		b.addMoney(SectionValuation, "Market Value", v.MarketValue, v.Currency)
		b.addDate(SectionValuation, "Estimate Date", v.EstimateDate)
		b.add(SectionValuation, "Source", v.Source)
	}

	if m := a.Mutation; m != nil {
		b.add(SectionMutation, "Mutation Status", m.MutationStatus)
		b.add(SectionMutation, "Title Deed No", m.TitleDeedNumber)
		b.add(SectionMutation, "Khatian No", m.KhatianNumber)
		b.addDate(SectionMutation, "Last Transfer Date", m.LastTransferDate)
	}

	if c := a.Compliance; c != nil {
		b.addDate(SectionCompliance, "Tax Paid Until", c.TaxPaidUntil)
		b.add(SectionCompliance, "Insurance Policy", c.InsurancePolicy)
		b.addDate(SectionCompliance, "Insurance Valid Until", c.InsuranceValidUntil)
		b.add(SectionCompliance, "Notes", c.Notes)
	}

	for _, entry := range a.History {
		b.add(SectionHistory, entry.Date.Format(dateLayout), formatHistory(entry))
	}

	if len(a.Tags) > 0 {
		b.add(SectionTags, "Tags", strings.Join(a.Tags, ", "))
	}

	b.add(SectionNotes, "Notes", a.NotesInternal)

	return b.rows
}

type builder struct {
	rows []Row
}

// add appends a row unless the value is empty.
func (b *builder) add(section, field, value string) {
	if value == "" {
		return
	}
	b.rows = append(b.rows, Row{Section: section, Field: field, Value: value})
}

// addDate always appends, rendering absent dates as the placeholder.
func (b *builder) addDate(section, field string, t *time.Time) {
	value := naDate
	if t != nil && !t.IsZero() {
		value = t.Format(dateLayout)
	}
	b.rows = append(b.rows, Row{Section: section, Field: field, Value: value})
}

func (b *builder) addMoney(section, field string, amount float64, currency string) {
	if amount == 0 {
		return
	}
	value := strconv.FormatFloat(amount, 'f', -1, 64)
	if currency != "" {
		value += " " + currency
	}
	b.add(section, field, value)
}

func (b *builder) projectVariant(a *models.Asset) {
	switch a.Type {
	case models.TypeLandPlot:
		if d := a.Dimensions; d != nil {
			b.addFloat(SectionDimensions, "Area (sq m)", d.AreaSqM)
			b.addFloat(SectionDimensions, "Frontage (m)", d.Frontage)
			b.addFloat(SectionDimensions, "Depth (m)", d.Depth)
			b.add(SectionDimensions, "Survey No", d.SurveyNumber)
		}
	case models.TypeHouse, models.TypeApartment:
		if st := a.Structure; st != nil {
			b.addFloat(SectionStructure, "Area (sq m)", st.AreaSqM)
			b.addInt(SectionStructure, "Floors", st.Floors)
			b.addInt(SectionStructure, "Bedrooms", st.Bedrooms)
			b.addInt(SectionStructure, "Bathrooms", st.Bathrooms)
			b.addInt(SectionStructure, "Year Built", st.YearBuilt)
		}
	case models.TypeVehicle:
		if sp := a.Specs; sp != nil {
			b.add(SectionVehicleSpecs, "Make", sp.Make)
			b.add(SectionVehicleSpecs, "Model", sp.Model)
			b.addInt(SectionVehicleSpecs, "Year", sp.Year)
			b.add(SectionVehicleSpecs, "Color", sp.Color)
			b.addInt(SectionVehicleSpecs, "Engine (cc)", sp.EngineCC)
			b.add(SectionVehicleSpecs, "Chassis No", sp.ChassisNumber)
		}
		if reg := a.Registration; reg != nil {
			b.add(SectionRegistration, "Plate No", reg.PlateNumber)
			b.add(SectionRegistration, "Authority", reg.Authority)
			b.addDate(SectionRegistration, "Registered Until", reg.RegisteredUntil)
		}
	}
}

func (b *builder) addFloat(section, field string, v float64) {
	if v == 0 {
		return
	}
	b.add(section, field, strconv.FormatFloat(v, 'f', -1, 64))
}

func (b *builder) addInt(section, field string, v int) {
	if v == 0 {
		return
	}
	b.add(section, field, strconv.Itoa(v))
}

func formatShare(share models.OwnershipShare) string {
	value := strconv.FormatFloat(share.Percentage, 'f', -1, 64) + "%"
	if share.OwnershipType != "" {
		value = fmt.Sprintf("%s (%s)", value, share.OwnershipType)
	}
	return value
}

func formatHistory(entry models.HistoryEntry) string {
	value := entry.Action
	if entry.Details != "" {
		value += ": " + entry.Details
	}
	if entry.Actor != "" {
		value += " [" + entry.Actor + "]"
	}
	return value
}
