package models

import (
	"time"
)

// Organization roles, highest privilege first.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// Organization is the tenant boundary for every inventory record.
type Organization struct {
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	ParentOrgID *int64    `gorm:"column:parent_org_id;index" json:"parent_org_id"`
	Name        string    `gorm:"size:100;not null;column:name" json:"name"`
	ID          int64     `gorm:"primaryKey" json:"id"`
}

// TableName specifies the table name for GORM.
func (Organization) TableName() string {
	return "organizations"
}

// OrganizationUser binds a user to an organization with a role.
type OrganizationUser struct {
	Role           string `gorm:"size:20;not null;default:'viewer';column:role" json:"role"`
	ID             int64  `gorm:"primaryKey" json:"id"`
	OrganizationID int64  `gorm:"not null;uniqueIndex:idx_org_user;column:organization_id" json:"organization_id"`
	UserID         int64  `gorm:"not null;uniqueIndex:idx_org_user;index;column:user_id" json:"user_id"`
}

// TableName specifies the table name for GORM.
func (OrganizationUser) TableName() string {
	return "organization_users"
}
