package models

import (
	"time"
)

// TaxLot is the long-lived identity of a tax lot. Its organization never changes.
type TaxLot struct {
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
	ID             int64     `gorm:"primaryKey" json:"id"`
	OrganizationID int64     `gorm:"not null;index;column:organization_id" json:"organization_id"`
}

// TableName specifies the table name for GORM.
func (TaxLot) TableName() string {
	return "taxlots"
}

// TaxLotState is an immutable snapshot of a tax lot's descriptive fields.
type TaxLotState struct {
	CreatedAt            time.Time `gorm:"column:created_at" json:"created_at"`
	ExtraData            ExtraData `gorm:"type:jsonb;not null;default:'{}';column:extra_data" json:"extra_data"`
	JurisdictionTaxLotID *string   `gorm:"size:2047;index;column:jurisdiction_tax_lot_id" json:"jurisdiction_tax_lot_id"`
	BlockNumber          *string   `gorm:"size:255;column:block_number" json:"block_number"`
	District             *string   `gorm:"size:255;column:district" json:"district"`
	CustomID1            *string   `gorm:"size:255;index;column:custom_id_1" json:"custom_id_1"`
	AddressLine1         *string   `gorm:"size:255;column:address_line_1" json:"address_line_1"`
	City                 *string   `gorm:"size:255;column:city" json:"city"`
	State                *string   `gorm:"size:255;column:state" json:"state"`
	PostalCode           *string   `gorm:"size:255;column:postal_code" json:"postal_code"`
	NumberProperties     *int      `gorm:"column:number_properties" json:"number_properties"`
	ID                   int64     `gorm:"primaryKey" json:"id"`
	OrganizationID       int64     `gorm:"not null;index;column:organization_id" json:"organization_id"`
}

// TableName specifies the table name for GORM.
func (TaxLotState) TableName() string {
	return "taxlot_states"
}

// TaxLotView binds a tax lot to the state it had during one cycle.
type TaxLotView struct {
	TaxLot   TaxLot      `gorm:"foreignKey:TaxLotID" json:"taxlot"`
	State    TaxLotState `gorm:"foreignKey:StateID" json:"state"`
	Cycle    Cycle       `gorm:"foreignKey:CycleID" json:"cycle"`
	ID       int64       `gorm:"primaryKey" json:"id"`
	TaxLotID int64       `gorm:"not null;uniqueIndex:idx_taxlot_cycle;column:taxlot_id" json:"taxlot_id"`
	CycleID  int64       `gorm:"not null;uniqueIndex:idx_taxlot_cycle;column:cycle_id" json:"cycle_id"`
	StateID  int64       `gorm:"not null;index;column:state_id" json:"state_id"`
}

// TableName specifies the table name for GORM.
func (TaxLotView) TableName() string {
	return "taxlot_views"
}

// TaxLotProperty links one property view to one tax lot view.
// Primary marks the link shown as the main counterpart.
type TaxLotProperty struct {
	CycleID        *int64 `gorm:"index;column:cycle_id" json:"cycle_id"`
	ID             int64  `gorm:"primaryKey" json:"id"`
	PropertyViewID int64  `gorm:"not null;index;column:property_view_id" json:"property_view_id"`
	TaxLotViewID   int64  `gorm:"not null;index;column:taxlot_view_id" json:"taxlot_view_id"`
	Primary        bool   `gorm:"not null;default:false;column:is_primary" json:"primary"`
}

// TableName specifies the table name for GORM.
func (TaxLotProperty) TableName() string {
	return "taxlot_properties"
}
