package models

import (
	"time"

	"gorm.io/gorm"
)

// Role identifies what a user is allowed to do in the system
type Role string

const (
	RoleCustomer      Role = "customer"
	RoleAdmin         Role = "admin"
	RoleTechnician    Role = "technician"
	RoleServiceCenter Role = "service_center"
)

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleTechnician, RoleServiceCenter:
		return true
	}
	return false
}

// User represents a user in the system (customer or staff member)
type User struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Auth0ID         string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name            string         `gorm:"not null" json:"name"`
	Email           string         `gorm:"uniqueIndex;not null" json:"email"`
	Role            Role           `gorm:"not null;default:'customer'" json:"role"`
	ServiceCenterID *uint          `gorm:"index" json:"service_center_id,omitempty"` // operated center for service_center staff, home center for technicians
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
