package report

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"heirloom/internal/asset/models"
)

type ProjectorSuite struct {
	suite.Suite
}

func TestProjectorSuite(t *testing.T) {
	suite.Run(t, new(ProjectorSuite))
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func fullHouse() *models.Asset {
	return &models.Asset{
		ID:            uuid.New(),
		Type:          models.TypeHouse,
		Title:         "Dhanmondi family home",
		Description:   "Two-storey family residence",
		CurrentStatus: models.StatusActive,
		Location: &models.Location{
			AddressLine: "House 12, Road 7",
			City:        "Dhaka",
			District:    "Dhanmondi",
			Country:     "Bangladesh",
		},
		Structure: &models.Structure{AreaSqM: 240, Floors: 2, Bedrooms: 4, Bathrooms: 3, YearBuilt: 1998},
		Owners: []models.OwnershipShare{
			{OwnerID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Percentage: 60, OwnershipType: "inherited"},
			{OwnerID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Percentage: 40},
		},
		Acquisition: &models.Acquisition{Method: "inheritance", Date: date(2001, time.March, 14), FromParty: "grandfather"},
		Valuation:   &models.ValuationRecord{MarketValue: 25_000_000, Currency: "BDT", EstimateDate: date(2024, time.November, 2), Source: "broker"},
		Mutation:    &models.MutationTitle{MutationStatus: "complete", TitleDeedNumber: "TD-4471"},
		Compliance:  &models.Compliance{TaxPaidUntil: date(2025, time.June, 30), InsurancePolicy: "HP-100"},
		History: []models.HistoryEntry{
			{Date: time.Date(2001, time.March, 14, 0, 0, 0, 0, time.UTC), Action: "inherited", Actor: "registry"},
			{Date: time.Date(2010, time.July, 1, 0, 0, 0, 0, time.UTC), Action: "second floor added", Details: "permit 88/2010"},
		},
		Tags:          []string{"residence", "primary"},
		NotesInternal: "keep deed copy in the locker",
	}
}

func sectionOrder(rows []Row) []string {
	var order []string
	for _, row := range rows {
		if len(order) == 0 || order[len(order)-1] != row.Section {
			order = append(order, row.Section)
		}
	}
	return order
}

func find(rows []Row, section, field string) (string, bool) {
	for _, row := range rows {
		if row.Section == section && row.Field == field {
			return row.Value, true
		}
	}
	return "", false
}

func (s *ProjectorSuite) TestSectionOrder() {
	rows := Project(fullHouse())

	s.Equal([]string{
		SectionBasic,
		SectionLocation,
		SectionStructure,
		SectionOwnership,
		SectionAcquisition,
		SectionValuation,
		SectionMutation,
		SectionCompliance,
		SectionHistory,
		SectionTags,
		SectionNotes,
	}, sectionOrder(rows))
}

func (s *ProjectorSuite) TestIdempotence() {
	a := fullHouse()
	first := Project(a)
	second := Project(a)
	s.Equal(first, second)
}

func (s *ProjectorSuite) TestOmissionPolicy() {
	s.Run("empty fields are omitted entirely", func() {
		a := fullHouse()
		a.Description = ""
		a.Tags = nil
		a.NotesInternal = ""

		rows := Project(a)
		_, found := find(rows, SectionBasic, "Description")
		s.False(found)
		s.NotContains(sectionOrder(rows), SectionTags)
		s.NotContains(sectionOrder(rows), SectionNotes)
	})

	s.Run("absent dates render as N/A instead of disappearing", func() {
		a := fullHouse()
		a.Acquisition.Date = nil
		a.Valuation.EstimateDate = nil

		rows := Project(a)
		v, found := find(rows, SectionAcquisition, "Date")
		s.True(found)
		s.Equal("N/A", v)

		v, found = find(rows, SectionValuation, "Estimate Date")
		s.True(found)
		s.Equal("N/A", v)
	})

	s.Run("nil section blocks are omitted wholesale", func() {
		a := fullHouse()
		a.Acquisition = nil
		a.Compliance = nil

		order := sectionOrder(Project(a))
		s.NotContains(order, SectionAcquisition)
		s.NotContains(order, SectionCompliance)
	})
}

func (s *ProjectorSuite) TestAllVariantsThroughOneFunction() {
	s.Run("land plot projects dimensions", func() {
		rows := Project(&models.Asset{
			Type:          models.TypeLandPlot,
			Title:         "Paddy land",
			CurrentStatus: models.StatusActive,
			Dimensions:    &models.Dimensions{AreaSqM: 2400, SurveyNumber: "BS-118"},
		})
		v, found := find(rows, SectionDimensions, "Survey No")
		s.True(found)
		s.Equal("BS-118", v)
	})

	s.Run("apartment projects structure", func() {
		rows := Project(&models.Asset{
			Type:          models.TypeApartment,
			Title:         "City flat",
			CurrentStatus: models.StatusActive,
			Structure:     &models.Structure{AreaSqM: 110, Bedrooms: 3},
		})
		v, found := find(rows, SectionStructure, "Area (sq m)")
		s.True(found)
		s.Equal("110", v)
	})

	s.Run("vehicle projects specs and registration with the date placeholder", func() {
		rows := Project(&models.Asset{
			Type:          models.TypeVehicle,
			Title:         "Family sedan",
			CurrentStatus: models.StatusActive,
			Specs:         &models.VehicleSpecs{Make: "Toyota", Model: "Corolla", Year: 2019},
			Registration:  &models.Registration{PlateNumber: "DHA-11-2233"},
		})
		v, found := find(rows, SectionVehicleSpecs, "Make")
		s.True(found)
		s.Equal("Toyota", v)

		v, found = find(rows, SectionRegistration, "Registered Until")
		s.True(found)
		s.Equal("N/A", v)
	})
}

func (s *ProjectorSuite) TestFormatting() {
	rows := Project(fullHouse())

	s.Run("ownership shares carry percentage and type", func() {
		v, found := find(rows, SectionOwnership, "11111111-1111-1111-1111-111111111111")
		s.True(found)
		s.Equal("60% (inherited)", v)

		v, found = find(rows, SectionOwnership, "22222222-2222-2222-2222-222222222222")
		s.True(found)
		s.Equal("40%", v)
	})

	s.Run("valuation renders amount with currency", func() {
		v, found := find(rows, SectionValuation, "Market Value")
		s.True(found)
		s.Equal("25000000 BDT", v)
	})

	s.Run("history entries keep insertion order", func() {
		v, found := find(rows, SectionHistory, "2001-03-14")
		s.True(found)
		s.Equal("inherited [registry]", v)

		v, found = find(rows, SectionHistory, "2010-07-01")
		s.True(found)
		s.Equal("second floor added: permit 88/2010", v)
	})
}
