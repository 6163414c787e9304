package models

import (
	"time"

	"gorm.io/gorm"
)

// TransportStatus is the state of an item being moved to a service center
type TransportStatus string

const (
	TransportPending   TransportStatus = "Pending"
	TransportApproved  TransportStatus = "Approved"
	TransportInTransit TransportStatus = "In Transit"
	TransportDelivered TransportStatus = "Delivered"
	TransportCancelled TransportStatus = "Cancelled"
)

// Forward-only, one step at a time. An item already in transit cannot be
// cancelled.
var transportTransitions = map[TransportStatus][]TransportStatus{
	TransportPending:   {TransportApproved, TransportCancelled},
	TransportApproved:  {TransportInTransit, TransportCancelled},
	TransportInTransit: {TransportDelivered},
	TransportDelivered: {},
	TransportCancelled: {},
}

// IsValid returns true if the status is a recognized transport status
func (s TransportStatus) IsValid() bool {
	_, ok := transportTransitions[s]
	return ok
}

// CanTransitionTo returns true if moving from s to target is allowed
func (s TransportStatus) CanTransitionTo(target TransportStatus) bool {
	for _, next := range transportTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// TransportRequest asks for an item a technician could not fix on site to be
// moved to a service center. It never changes the job or booking it refers to.
type TransportRequest struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	JobID           uint            `gorm:"not null;index" json:"job_id"`
	Job             *Job            `gorm:"foreignKey:JobID" json:"job,omitempty"`
	TechnicianID    uint            `gorm:"not null;index" json:"technician_id"`
	Technician      *User           `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
	ServiceCenterID uint            `gorm:"not null;index" json:"service_center_id"`
	ServiceCenter   *ServiceCenter  `gorm:"foreignKey:ServiceCenterID" json:"service_center,omitempty"`
	Status          TransportStatus `gorm:"not null;default:'Pending';index" json:"status"`
	RequestDate     time.Time       `gorm:"not null" json:"request_date"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the TransportRequest model
func (TransportRequest) TableName() string {
	return "transport_requests"
}
