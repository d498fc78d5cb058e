package models

import (
	"time"
)

// Cycle is a named reporting period. A view binds a container's state to one cycle.
type Cycle struct {
	Start          time.Time `gorm:"column:start_date;not null" json:"start"`
	End            time.Time `gorm:"column:end_date;not null" json:"end"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	Name           string    `gorm:"size:255;not null;column:name" json:"name"`
	ID             int64     `gorm:"primaryKey" json:"id"`
	OrganizationID int64     `gorm:"not null;index;column:organization_id" json:"organization_id"`
}

// TableName specifies the table name for GORM.
func (Cycle) TableName() string {
	return "cycles"
}
