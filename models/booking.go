package models

import (
	"time"

	"gorm.io/gorm"
)

// BookingStatus is the lifecycle state of a customer's repair request
type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingInProgress BookingStatus = "in-progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:    {BookingConfirmed, BookingCancelled},
	BookingConfirmed:  {BookingInProgress, BookingCompleted, BookingCancelled},
	BookingInProgress: {BookingCompleted},
	BookingCompleted:  {},
	BookingCancelled:  {},
}

// IsValid returns true if the status is a recognized booking status
func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo returns true if moving from s to target is allowed
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// ServiceType is the appliance category a booking is raised for
type ServiceType string

const (
	ServiceRefrigerator   ServiceType = "refrigerator"
	ServiceWashingMachine ServiceType = "washing_machine"
	ServiceAirConditioner ServiceType = "air_conditioner"
	ServiceMicrowave      ServiceType = "microwave"
	ServiceDishwasher     ServiceType = "dishwasher"
	ServiceOven           ServiceType = "oven"
	ServiceWaterHeater    ServiceType = "water_heater"
	ServiceTelevision     ServiceType = "television"
	ServiceOther          ServiceType = "other"
)

// ServiceTypes lists every accepted appliance category
var ServiceTypes = []ServiceType{
	ServiceRefrigerator,
	ServiceWashingMachine,
	ServiceAirConditioner,
	ServiceMicrowave,
	ServiceDishwasher,
	ServiceOven,
	ServiceWaterHeater,
	ServiceTelevision,
	ServiceOther,
}

// PreferredTime is the customer's preferred visit window; empty means any time
type PreferredTime string

const (
	TimeAny       PreferredTime = ""
	TimeMorning   PreferredTime = "morning"
	TimeAfternoon PreferredTime = "afternoon"
	TimeEvening   PreferredTime = "evening"
)

// DateLayout is the storage format of Booking.PreferredDate
const DateLayout = "2006-01-02"

// Booking represents a customer's repair request
type Booking struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	BookingReference     string         `gorm:"uniqueIndex;size:32;not null" json:"booking_reference"`
	CustomerID           uint           `gorm:"not null;index" json:"customer_id"`
	Name                 string         `gorm:"not null" json:"name"`
	Email                string         `gorm:"not null;index" json:"email"`
	Phone                string         `gorm:"not null" json:"phone"` // always "+" followed by digits
	Address              string         `gorm:"not null" json:"address"`
	ServiceType          ServiceType    `gorm:"not null" json:"service_type"`
	PreferredDate        string         `gorm:"size:10;not null" json:"preferred_date"` // YYYY-MM-DD
	PreferredTime        PreferredTime  `json:"preferred_time"`
	Description          string         `gorm:"type:text" json:"description"`
	Status               BookingStatus  `gorm:"not null;default:'pending';index" json:"status"`
	TechnicianAssignedID *uint          `gorm:"index" json:"technician_assigned"` // nullable, set when a technician is bound
	TechnicianAssigned   *User          `gorm:"foreignKey:TechnicianAssignedID" json:"technician,omitempty"`
	Version              uint           `gorm:"not null;default:1" json:"version"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}
