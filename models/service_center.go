package models

import (
	"time"

	"gorm.io/gorm"
)

// ServiceCenter is a workshop that receives bookings from admins and
// dispatches its technicians
type ServiceCenter struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Address   string         `gorm:"not null" json:"address"`
	Phone     string         `json:"phone"`
	Email     string         `json:"email"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the ServiceCenter model
func (ServiceCenter) TableName() string {
	return "service_centers"
}
