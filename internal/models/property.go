package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Property is the long-lived identity of a building. Its organization never changes.
type Property struct {
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
	ID             int64     `gorm:"primaryKey" json:"id"`
	OrganizationID int64     `gorm:"not null;index;column:organization_id" json:"organization_id"`
}

// TableName specifies the table name for GORM.
func (Property) TableName() string {
	return "properties"
}

// PropertyState is an immutable snapshot of a property's descriptive fields.
// All nullable fields use pointers to distinguish between zero values and NULL.
type PropertyState struct {
	CreatedAt      time.Time           `gorm:"column:created_at" json:"created_at"`
	ExtraData      ExtraData           `gorm:"type:jsonb;not null;default:'{}';column:extra_data" json:"extra_data"`
	GrossFloorArea decimal.NullDecimal `gorm:"type:numeric(18,2);column:gross_floor_area" json:"gross_floor_area"`
	PMPropertyID   *string             `gorm:"size:255;index;column:pm_property_id" json:"pm_property_id"`
	CustomID1      *string             `gorm:"size:255;index;column:custom_id_1" json:"custom_id_1"`
	AddressLine1   *string             `gorm:"size:255;column:address_line_1" json:"address_line_1"`
	AddressLine2   *string             `gorm:"size:255;column:address_line_2" json:"address_line_2"`
	City           *string             `gorm:"size:255;column:city" json:"city"`
	State          *string             `gorm:"size:255;column:state" json:"state"`
	PostalCode     *string             `gorm:"size:255;column:postal_code" json:"postal_code"`
	BuildingCount  *int                `gorm:"column:building_count" json:"building_count"`
	YearBuilt      *int                `gorm:"column:year_built" json:"year_built"`
	ID             int64               `gorm:"primaryKey" json:"id"`
	OrganizationID int64               `gorm:"not null;index;column:organization_id" json:"organization_id"`
}

// TableName specifies the table name for GORM.
func (PropertyState) TableName() string {
	return "property_states"
}

// PropertyView binds a property to the state it had during one cycle.
// Property, State and Cycle are loaded together with the view.
type PropertyView struct {
	Property   Property      `gorm:"foreignKey:PropertyID" json:"property"`
	State      PropertyState `gorm:"foreignKey:StateID" json:"state"`
	Cycle      Cycle         `gorm:"foreignKey:CycleID" json:"cycle"`
	ID         int64         `gorm:"primaryKey" json:"id"`
	PropertyID int64         `gorm:"not null;uniqueIndex:idx_property_cycle;column:property_id" json:"property_id"`
	CycleID    int64         `gorm:"not null;uniqueIndex:idx_property_cycle;column:cycle_id" json:"cycle_id"`
	StateID    int64         `gorm:"not null;index;column:state_id" json:"state_id"`
}

// TableName specifies the table name for GORM.
func (PropertyView) TableName() string {
	return "property_views"
}
