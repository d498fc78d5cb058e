package models

import (
	"time"
)

// State table names stored in Column.TableName.
const (
	TablePropertyState = "PropertyState"
	TableTaxLotState   = "TaxLotState"
)

// Column describes one field of a state table, either a database column or
// an extra_data key.
type Column struct {
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	StateTable     string    `gorm:"size:512;not null;index:idx_column_lookup;column:table_name" json:"table_name"`
	ColumnName     string    `gorm:"size:512;not null;index:idx_column_lookup;column:column_name" json:"column_name"`
	DataType       string    `gorm:"size:64;not null;default:'None';column:data_type" json:"data_type"`
	ID             int64     `gorm:"primaryKey" json:"id"`
	OrganizationID int64     `gorm:"not null;index:idx_column_lookup;column:organization_id" json:"organization_id"`
	IsExtraData    bool      `gorm:"not null;default:false;column:is_extra_data" json:"is_extra_data"`
}

// TableName specifies the table name for GORM.
func (Column) TableName() string {
	return "columns"
}

// ColumnMapping maps a raw import column onto an inventory column.
type ColumnMapping struct {
	CreatedAt           time.Time `gorm:"column:created_at" json:"created_at"`
	ColumnRaw           *Column   `gorm:"foreignKey:ColumnRawID" json:"column_raw,omitempty"`
	ColumnMapped        *Column   `gorm:"foreignKey:ColumnMappedID" json:"column_mapped,omitempty"`
	UserID              *int64    `gorm:"column:user_id" json:"user_id"`
	ColumnMappedID      *int64    `gorm:"index;column:column_mapped_id" json:"column_mapped_id"`
	ID                  int64     `gorm:"primaryKey" json:"id"`
	SuperOrganizationID int64     `gorm:"not null;index;column:super_organization_id" json:"super_organization_id"`
	ColumnRawID         int64     `gorm:"not null;index;column:column_raw_id" json:"column_raw_id"`
}

// TableName specifies the table name for GORM.
func (ColumnMapping) TableName() string {
	return "column_mappings"
}

// ColumnListSetting is a saved, ordered selection of columns for a list view.
type ColumnListSetting struct {
	CreatedAt        time.Time                 `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time                 `gorm:"column:updated_at" json:"updated_at"`
	Columns          []ColumnListSettingColumn `gorm:"foreignKey:ColumnListSettingID;constraint:OnDelete:CASCADE" json:"columns"`
	Name             string                    `gorm:"size:512;not null;column:name" json:"name"`
	SettingsLocation string                    `gorm:"size:64;column:settings_location" json:"settings_location"`
	InventoryType    string                    `gorm:"size:32;column:inventory_type" json:"inventory_type"`
	ID               int64                     `gorm:"primaryKey" json:"id"`
	OrganizationID   int64                     `gorm:"not null;index;column:organization_id" json:"organization_id"`
}

// TableName specifies the table name for GORM.
func (ColumnListSetting) TableName() string {
	return "column_list_settings"
}

// ColumnListSettingColumn places one column inside a list setting.
type ColumnListSettingColumn struct {
	ID                  int64 `gorm:"primaryKey" json:"-"`
	ColumnListSettingID int64 `gorm:"not null;index;column:column_list_setting_id" json:"-"`
	ColumnID            int64 `gorm:"not null;index;column:column_id" json:"id"`
	Order               int   `gorm:"not null;default:0;column:order" json:"order"`
	Pinned              bool  `gorm:"not null;default:false;column:pinned" json:"pinned"`
}

// TableName specifies the table name for GORM.
func (ColumnListSettingColumn) TableName() string {
	return "column_list_setting_columns"
}

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{
		&Organization{},
		&OrganizationUser{},
		&Cycle{},
		&Property{},
		&PropertyState{},
		&PropertyView{},
		&TaxLot{},
		&TaxLotState{},
		&TaxLotView{},
		&TaxLotProperty{},
		&Column{},
		&ColumnMapping{},
		&ColumnListSetting{},
		&ColumnListSettingColumn{},
	}
}
