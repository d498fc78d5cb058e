package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stwalsh4118/bluesky/api/internal/models"
	"github.com/stwalsh4118/bluesky/api/internal/pagination"
	"github.com/stwalsh4118/bluesky/api/internal/services"
)

// CycleData is the wire form of a cycle.
type CycleData struct {
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	CreatedAt      time.Time `json:"created_at"`
	Name           string    `json:"name"`
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
}

// ContainerData is the wire form of a property or tax lot container.
type ContainerData struct {
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
}

// PropertyStateData is the wire form of a property state.
type PropertyStateData struct {
	ExtraData      map[string]interface{} `json:"extra_data"`
	GrossFloorArea *decimal.Decimal       `json:"gross_floor_area"`
	PMPropertyID   *string                `json:"pm_property_id"`
	CustomID1      *string                `json:"custom_id_1"`
	AddressLine1   *string                `json:"address_line_1"`
	AddressLine2   *string                `json:"address_line_2"`
	City           *string                `json:"city"`
	State          *string                `json:"state"`
	PostalCode     *string                `json:"postal_code"`
	BuildingCount  *int                   `json:"building_count"`
	YearBuilt      *int                   `json:"year_built"`
	ID             int64                  `json:"id"`
	OrganizationID int64                  `json:"organization_id"`
}

// TaxLotStateData is the wire form of a tax lot state.
type TaxLotStateData struct {
	ExtraData            map[string]interface{} `json:"extra_data"`
	JurisdictionTaxLotID *string                `json:"jurisdiction_tax_lot_id"`
	BlockNumber          *string                `json:"block_number"`
	District             *string                `json:"district"`
	CustomID1            *string                `json:"custom_id_1"`
	AddressLine1         *string                `json:"address_line_1"`
	City                 *string                `json:"city"`
	State                *string                `json:"state"`
	PostalCode           *string                `json:"postal_code"`
	NumberProperties     *int                   `json:"number_properties"`
	ID                   int64                  `json:"id"`
	OrganizationID       int64                  `json:"organization_id"`
}

// RelatedData is one linked opposite-side state of a listed view.
type RelatedData[S any] struct {
	State   S    `json:"state"`
	Primary bool `json:"primary"`
}

// PropertyRecord is one listed property view.
type PropertyRecord struct {
	Related  []RelatedData[TaxLotStateData] `json:"related"`
	State    PropertyStateData              `json:"state"`
	Property ContainerData                  `json:"property"`
	Cycle    CycleData                      `json:"cycle"`
	ID       int64                          `json:"id"`
}

// TaxLotRecord is one listed tax lot view.
type TaxLotRecord struct {
	Related []RelatedData[PropertyStateData] `json:"related"`
	State   TaxLotStateData                  `json:"state"`
	TaxLot  ContainerData                    `json:"taxlot"`
	Cycle   CycleData                        `json:"cycle"`
	ID      int64                            `json:"id"`
}

// ListResponse is the paginated list envelope.
type ListResponse[R any] struct {
	Results    []R             `json:"results"`
	Pagination pagination.Info `json:"pagination"`
}

// PropertyViewData is a full property view as attached to a tax lot.
type PropertyViewData struct {
	State      PropertyStateData `json:"state"`
	Cycle      CycleData         `json:"cycle"`
	ID         int64             `json:"id"`
	PropertyID int64             `json:"property"`
}

// TaxLotViewData is a full tax lot view as attached to a property.
type TaxLotViewData struct {
	State    TaxLotStateData `json:"state"`
	Cycle    CycleData       `json:"cycle"`
	ID       int64           `json:"id"`
	TaxLotID int64           `json:"taxlot"`
}

// PropertyDetailResponse is a single property view with its tax lots.
type PropertyDetailResponse struct {
	Lots     []TaxLotViewData  `json:"lots"`
	State    PropertyStateData `json:"state"`
	Property ContainerData     `json:"property"`
	Cycle    CycleData         `json:"cycle"`
	ID       int64             `json:"id"`
}

// TaxLotDetailResponse is a single tax lot view with its properties.
type TaxLotDetailResponse struct {
	Properties []PropertyViewData `json:"properties"`
	State      TaxLotStateData    `json:"state"`
	TaxLot     ContainerData      `json:"taxlot"`
	Cycle      CycleData          `json:"cycle"`
	ID         int64              `json:"id"`
}

func mapCycle(c models.Cycle) CycleData {
	return CycleData{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		Name:           c.Name,
		Start:          c.Start,
		End:            c.End,
		CreatedAt:      c.CreatedAt,
	}
}

func mapProperty(p models.Property) ContainerData {
	return ContainerData{
		ID:             p.ID,
		OrganizationID: p.OrganizationID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func mapTaxLot(t models.TaxLot) ContainerData {
	return ContainerData{
		ID:             t.ID,
		OrganizationID: t.OrganizationID,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func mapExtraData(extra models.ExtraData) map[string]interface{} {
	if extra == nil {
		return map[string]interface{}{}
	}
	return extra
}

func mapPropertyState(s models.PropertyState) PropertyStateData {
	dto := PropertyStateData{
		ID:             s.ID,
		OrganizationID: s.OrganizationID,
		ExtraData:      mapExtraData(s.ExtraData),
		PMPropertyID:   s.PMPropertyID,
		CustomID1:      s.CustomID1,
		AddressLine1:   s.AddressLine1,
		AddressLine2:   s.AddressLine2,
		City:           s.City,
		State:          s.State,
		PostalCode:     s.PostalCode,
		BuildingCount:  s.BuildingCount,
		YearBuilt:      s.YearBuilt,
	}
	if s.GrossFloorArea.Valid {
		area := s.GrossFloorArea.Decimal
		dto.GrossFloorArea = &area
	}
	return dto
}

func mapTaxLotState(s models.TaxLotState) TaxLotStateData {
	return TaxLotStateData{
		ID:                   s.ID,
		OrganizationID:       s.OrganizationID,
		ExtraData:            mapExtraData(s.ExtraData),
		JurisdictionTaxLotID: s.JurisdictionTaxLotID,
		BlockNumber:          s.BlockNumber,
		District:             s.District,
		CustomID1:            s.CustomID1,
		AddressLine1:         s.AddressLine1,
		City:                 s.City,
		State:                s.State,
		PostalCode:           s.PostalCode,
		NumberProperties:     s.NumberProperties,
	}
}

func mapPropertyPage(page *services.PropertyPage) ListResponse[PropertyRecord] {
	resp := ListResponse[PropertyRecord]{
		Pagination: page.Pagination,
		Results:    make([]PropertyRecord, 0, len(page.Results)),
	}
	for _, entry := range page.Results {
		related := make([]RelatedData[TaxLotStateData], 0, len(entry.Related))
		for _, r := range entry.Related {
			related = append(related, RelatedData[TaxLotStateData]{Primary: r.Primary, State: mapTaxLotState(r.State)})
		}
		resp.Results = append(resp.Results, PropertyRecord{
			ID:       entry.View.ID,
			State:    mapPropertyState(entry.View.State),
			Property: mapProperty(entry.View.Property),
			Cycle:    mapCycle(entry.View.Cycle),
			Related:  related,
		})
	}
	return resp
}

func mapTaxLotPage(page *services.TaxLotPage) ListResponse[TaxLotRecord] {
	resp := ListResponse[TaxLotRecord]{
		Pagination: page.Pagination,
		Results:    make([]TaxLotRecord, 0, len(page.Results)),
	}
	for _, entry := range page.Results {
		related := make([]RelatedData[PropertyStateData], 0, len(entry.Related))
		for _, r := range entry.Related {
			related = append(related, RelatedData[PropertyStateData]{Primary: r.Primary, State: mapPropertyState(r.State)})
		}
		resp.Results = append(resp.Results, TaxLotRecord{
			ID:      entry.View.ID,
			State:   mapTaxLotState(entry.View.State),
			TaxLot:  mapTaxLot(entry.View.TaxLot),
			Cycle:   mapCycle(entry.View.Cycle),
			Related: related,
		})
	}
	return resp
}

func mapPropertyDetail(detail *services.PropertyDetail) PropertyDetailResponse {
	lots := make([]TaxLotViewData, 0, len(detail.Related))
	for _, lot := range detail.Related {
		lots = append(lots, TaxLotViewData{
			ID:       lot.ID,
			TaxLotID: lot.TaxLotID,
			State:    mapTaxLotState(lot.State),
			Cycle:    mapCycle(lot.Cycle),
		})
	}
	return PropertyDetailResponse{
		ID:       detail.View.ID,
		State:    mapPropertyState(detail.View.State),
		Property: mapProperty(detail.View.Property),
		Cycle:    mapCycle(detail.View.Cycle),
		Lots:     lots,
	}
}

func mapTaxLotDetail(detail *services.TaxLotDetail) TaxLotDetailResponse {
	props := make([]PropertyViewData, 0, len(detail.Related))
	for _, p := range detail.Related {
		props = append(props, PropertyViewData{
			ID:         p.ID,
			PropertyID: p.PropertyID,
			State:      mapPropertyState(p.State),
			Cycle:      mapCycle(p.Cycle),
		})
	}
	return TaxLotDetailResponse{
		ID:         detail.View.ID,
		State:      mapTaxLotState(detail.View.State),
		TaxLot:     mapTaxLot(detail.View.TaxLot),
		Cycle:      mapCycle(detail.View.Cycle),
		Properties: props,
	}
}
