package models

import (
	"time"

	"gorm.io/gorm"
)

// AssignmentStatus is the state of a booking's link to a service center
type AssignmentStatus string

const (
	AssignmentAssigned   AssignmentStatus = "assigned"
	AssignmentInProgress AssignmentStatus = "in-progress"
	AssignmentCompleted  AssignmentStatus = "completed"
)

var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentAssigned:   {AssignmentInProgress},
	AssignmentInProgress: {AssignmentCompleted},
	AssignmentCompleted:  {},
}

// CanTransitionTo returns true if moving from s to target is allowed
func (s AssignmentStatus) CanTransitionTo(target AssignmentStatus) bool {
	for _, next := range assignmentTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// ServiceCenterBooking links a booking to the service center handling it and,
// once chosen, the technician doing the work
type ServiceCenterBooking struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	BookingID       uint             `gorm:"not null;index" json:"booking_id"`
	Booking         *Booking         `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	ServiceCenterID uint             `gorm:"not null;index" json:"service_center_id"`
	ServiceCenter   *ServiceCenter   `gorm:"foreignKey:ServiceCenterID" json:"service_center,omitempty"`
	TechnicianID    *uint            `gorm:"index" json:"technician_id"` // nullable until a technician is assigned
	Technician      *User            `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
	AssignedDate    time.Time        `gorm:"not null" json:"assigned_date"`
	Status          AssignmentStatus `gorm:"not null;default:'assigned';index" json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `gorm:"index" json:"-"`
}

// TableName specifies the table name for the ServiceCenterBooking model
func (ServiceCenterBooking) TableName() string {
	return "service_center_bookings"
}

// BeforeCreate stamps the assignment date when the caller left it empty
func (b *ServiceCenterBooking) BeforeCreate(tx *gorm.DB) error {
	if b.AssignedDate.IsZero() {
		b.AssignedDate = time.Now()
	}
	return nil
}
