package models

import (
	"time"

	"gorm.io/gorm"
)

// JobStatus is the state of a technician's work item
type JobStatus string

const (
	JobPending    JobStatus = "Pending"
	JobInProgress JobStatus = "In Progress"
	JobCompleted  JobStatus = "Completed"
	JobCancelled  JobStatus = "Cancelled"
)

var jobTransitions = map[JobStatus][]JobStatus{
	JobPending:    {JobInProgress, JobCancelled},
	JobInProgress: {JobCompleted, JobCancelled},
	JobCompleted:  {},
	JobCancelled:  {},
}

// IsValid returns true if the status is a recognized job status
func (s JobStatus) IsValid() bool {
	_, ok := jobTransitions[s]
	return ok
}

// CanTransitionTo returns true if moving from s to target is allowed
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	for _, next := range jobTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Urgency ranks how soon a job should be handled
type Urgency string

const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

// IsValid returns true if the urgency is a recognized level
func (u Urgency) IsValid() bool {
	return u == UrgencyLow || u == UrgencyMedium || u == UrgencyHigh
}

// Job is a technician-facing work item. Its descriptive fields are owned
// copies: a job derived from an assignment is a snapshot taken at creation
// time and never follows later edits of the booking.
type Job struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CustomerName string         `gorm:"not null" json:"customer_name"`
	Appliance    string         `gorm:"not null" json:"appliance"`
	Issue        string         `gorm:"type:text;not null" json:"issue"`
	Address      string         `gorm:"not null" json:"address"`
	Urgency      Urgency        `gorm:"not null;default:'Medium'" json:"urgency"`
	Date         time.Time      `gorm:"not null" json:"date"`
	Status       JobStatus      `gorm:"not null;default:'Pending';index" json:"status"`
	TechnicianID uint           `gorm:"not null;index" json:"technician_id"`
	Technician   *User          `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
	AssignmentID *uint          `gorm:"uniqueIndex" json:"assignment_id,omitempty"` // link the job was derived from, if any
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Job model
func (Job) TableName() string {
	return "jobs"
}
