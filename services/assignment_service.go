package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/repairhub/repairhub-api/models"
)

// AssignmentResult is the outcome of binding a technician: the confirmed
// booking and the link now in progress
type AssignmentResult struct {
	Booking    *models.Booking              `json:"booking"`
	Assignment *models.ServiceCenterBooking `json:"assignment"`
}

// DerivedAssignment is returned by the dashboard path that assigns a
// technician and derives a job in one step
type DerivedAssignment struct {
	Booking *models.ServiceCenterBooking `json:"booking"`
	Job     *models.Job                  `json:"job"`
}

// AssignmentService routes bookings to service centers and technicians
type AssignmentService struct {
	store
}

// NewAssignmentService creates an assignment service backed by db
func NewAssignmentService(db *gorm.DB, opts Options) *AssignmentService {
	return &AssignmentService{store: newStore(db, opts)}
}

// AssignServiceCenter links a pending booking to a service center. The
// booking stays pending until a technician is assigned.
func (s *AssignmentService) AssignServiceCenter(ctx context.Context, actor Actor, bookingID, serviceCenterID uint) (*models.ServiceCenterBooking, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("only admins can assign service centers: %w", ErrForbidden)
	}

	var link models.ServiceCenterBooking
	err := s.inTx(ctx, "AssignmentService.AssignServiceCenter", func(tx *gorm.DB) error {
		var booking models.Booking
		if err := find(tx, &booking, "booking", bookingID); err != nil {
			return err
		}
		var center models.ServiceCenter
		if err := find(tx, &center, "service center", serviceCenterID); err != nil {
			return err
		}
		if booking.Status != models.BookingPending {
			return conflictf("booking %d is %s; only pending bookings can be assigned", bookingID, booking.Status)
		}

		var open int64
		err := tx.Model(&models.ServiceCenterBooking{}).
			Where("booking_id = ? AND status <> ?", bookingID, models.AssignmentCompleted).
			Count(&open).Error
		if err != nil {
			return err
		}
		if open > 0 {
			return conflictf("booking %d is already assigned to a service center", bookingID)
		}

		// Bump the version so concurrent assignments of the same booking serialize
		if err := casBooking(tx, &booking, map[string]interface{}{}); err != nil {
			return err
		}

		link = models.ServiceCenterBooking{
			BookingID:       bookingID,
			ServiceCenterID: serviceCenterID,
			AssignedDate:    s.now(),
			Status:          models.AssignmentAssigned,
		}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
		return find(tx.Preload("Booking").Preload("ServiceCenter"), &link, "assignment", link.ID)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("booking_id", bookingID).
		WithField("service_center_id", serviceCenterID).
		WithField("assignment_id", link.ID).
		Info("booking assigned to service center")
	return &link, nil
}

// List returns the assignment links visible to actor
func (s *AssignmentService) List(ctx context.Context, actor Actor) ([]models.ServiceCenterBooking, error) {
	var links []models.ServiceCenterBooking
	err := s.read(ctx, "AssignmentService.List", func(db *gorm.DB) error {
		q, err := scopeAssignments(db, actor)
		if err != nil {
			return err
		}
		return q.Preload("Booking").Preload("ServiceCenter").Preload("Technician").
			Order("assigned_date DESC").
			Find(&links).Error
	})
	return links, err
}

// Get returns one assignment link visible to actor
func (s *AssignmentService) Get(ctx context.Context, actor Actor, id uint) (*models.ServiceCenterBooking, error) {
	var link models.ServiceCenterBooking
	err := s.read(ctx, "AssignmentService.Get", func(db *gorm.DB) error {
		q, err := scopeAssignments(db, actor)
		if err != nil {
			return err
		}
		return find(q.Preload("Booking").Preload("ServiceCenter").Preload("Technician"), &link, "assignment", id)
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// AssignTechnician confirms the booking behind linkID with technicianID and
// moves the link to in-progress. Both writes commit together or not at all.
func (s *AssignmentService) AssignTechnician(ctx context.Context, actor Actor, linkID, technicianID uint) (*AssignmentResult, error) {
	if err := canAssignTechnicians(actor); err != nil {
		return nil, err
	}

	var result *AssignmentResult
	err := s.inTx(ctx, "AssignmentService.AssignTechnician", func(tx *gorm.DB) error {
		var err error
		result, err = bindTechnician(tx, actor, linkID, technicianID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.technicianBound(result, actor)
	return result, nil
}

// AssignTechnicianWithJob does what AssignTechnician does and derives a job
// for the technician in the same transaction
func (s *AssignmentService) AssignTechnicianWithJob(ctx context.Context, actor Actor, linkID, technicianID uint) (*DerivedAssignment, error) {
	if err := canAssignTechnicians(actor); err != nil {
		return nil, err
	}

	var result *AssignmentResult
	var job *models.Job
	err := s.inTx(ctx, "AssignmentService.AssignTechnicianWithJob", func(tx *gorm.DB) error {
		var err error
		if result, err = bindTechnician(tx, actor, linkID, technicianID); err != nil {
			return err
		}
		job, err = deriveJob(tx, result.Assignment, technicianID, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.technicianBound(result, actor)
	s.log.WithField("job_id", job.ID).WithField("assignment_id", linkID).Info("job derived from assignment")
	return &DerivedAssignment{Booking: result.Assignment, Job: job}, nil
}

// DeriveJobFromAssignment creates a job snapshot for a link that is already
// bound to technicianID. A link yields at most one job.
func (s *AssignmentService) DeriveJobFromAssignment(ctx context.Context, actor Actor, linkID, technicianID uint) (*models.Job, error) {
	if err := canAssignTechnicians(actor); err != nil {
		return nil, err
	}

	var job *models.Job
	err := s.inTx(ctx, "AssignmentService.DeriveJobFromAssignment", func(tx *gorm.DB) error {
		link, err := loadLink(tx, actor, linkID)
		if err != nil {
			return err
		}
		if link.TechnicianID == nil || *link.TechnicianID != technicianID {
			return conflictf("assignment %d is not bound to technician %d", linkID, technicianID)
		}
		if link.Booking.Status == models.BookingCancelled {
			return conflictf("booking %d is cancelled", link.BookingID)
		}
		job, err = deriveJob(tx, link, technicianID, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("job_id", job.ID).WithField("assignment_id", linkID).Info("job derived from assignment")
	return job, nil
}

func (s *AssignmentService) technicianBound(r *AssignmentResult, actor Actor) {
	s.transitioned("booking", r.Booking.ID, string(models.BookingPending), string(models.BookingConfirmed), actor)
	s.transitioned("assignment", r.Assignment.ID, string(models.AssignmentAssigned), string(models.AssignmentInProgress), actor)
}

func canAssignTechnicians(actor Actor) error {
	if actor.IsAdmin() || actor.IsServiceCenter() {
		return nil
	}
	return fmt.Errorf("role %s cannot assign technicians: %w", actor.Role, ErrForbidden)
}

// scopeAssignments limits service-center staff to their own center and
// technicians to the links they are bound to
func scopeAssignments(db *gorm.DB, actor Actor) (*gorm.DB, error) {
	switch {
	case actor.IsAdmin():
		return db, nil
	case actor.IsServiceCenter():
		if actor.ServiceCenterID == nil {
			return db.Where("1 = 0"), nil
		}
		return db.Where("service_center_id = ?", *actor.ServiceCenterID), nil
	case actor.IsTechnician():
		return db.Where("technician_id = ?", actor.ID), nil
	}
	return nil, fmt.Errorf("role %s cannot view assignments: %w", actor.Role, ErrForbidden)
}

// loadLink fetches a link with its booking and service center. Links of
// another center are reported as not found to service-center staff.
func loadLink(tx *gorm.DB, actor Actor, linkID uint) (*models.ServiceCenterBooking, error) {
	var link models.ServiceCenterBooking
	if err := find(tx.Preload("Booking").Preload("ServiceCenter"), &link, "assignment", linkID); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.operatesCenter(link.ServiceCenterID) {
		return nil, notFound("assignment", linkID)
	}
	if link.Booking == nil {
		return nil, notFound("booking", link.BookingID)
	}
	if link.ServiceCenter == nil {
		return nil, notFound("service center", link.ServiceCenterID)
	}
	return &link, nil
}

// bindTechnician confirms the booking and starts the link for technicianID.
// It must run inside a transaction.
func bindTechnician(tx *gorm.DB, actor Actor, linkID, technicianID uint) (*AssignmentResult, error) {
	link, err := loadLink(tx, actor, linkID)
	if err != nil {
		return nil, err
	}

	var technician models.User
	if err := find(tx, &technician, "technician", technicianID); err != nil {
		return nil, err
	}
	if technician.Role != models.RoleTechnician {
		return nil, fieldError("technician_id", "must reference a user with the technician role")
	}

	booking := link.Booking
	if link.Status != models.AssignmentAssigned {
		return nil, conflictf("assignment %d is %s; a technician can only be assigned once", linkID, link.Status)
	}
	if booking.Status != models.BookingPending {
		return nil, conflictf("booking %d is %s; only pending bookings can be confirmed", booking.ID, booking.Status)
	}

	err = casBooking(tx, booking, map[string]interface{}{
		"status":                 models.BookingConfirmed,
		"technician_assigned_id": technicianID,
	})
	if err != nil {
		return nil, err
	}

	res := tx.Model(&models.ServiceCenterBooking{}).
		Where("id = ? AND status = ?", link.ID, models.AssignmentAssigned).
		Updates(map[string]interface{}{
			"status":        models.AssignmentInProgress,
			"technician_id": technicianID,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, conflictf("assignment %d was changed by another request", linkID)
	}

	var confirmed models.Booking
	if err := find(tx.Preload("TechnicianAssigned"), &confirmed, "booking", booking.ID); err != nil {
		return nil, err
	}
	var updated models.ServiceCenterBooking
	err = find(tx.Preload("Booking").Preload("ServiceCenter").Preload("Technician"), &updated, "assignment", link.ID)
	if err != nil {
		return nil, err
	}
	return &AssignmentResult{Booking: &confirmed, Assignment: &updated}, nil
}

// deriveJob stores a job whose descriptive fields are copied from the
// link's booking and service center at this moment
func deriveJob(tx *gorm.DB, link *models.ServiceCenterBooking, technicianID uint, now time.Time) (*models.Job, error) {
	var existing int64
	if err := tx.Model(&models.Job{}).Where("assignment_id = ?", link.ID).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, conflictf("a job was already derived from assignment %d", link.ID)
	}

	booking := link.Booking
	issue := booking.Description
	if issue == "" {
		issue = "Repair request " + booking.BookingReference
	}

	linkID := link.ID
	job := &models.Job{
		CustomerName: booking.Name,
		Appliance:    string(booking.ServiceType),
		Issue:        issue,
		Address:      link.ServiceCenter.Address,
		Urgency:      models.UrgencyMedium,
		Date:         now,
		Status:       models.JobPending,
		TechnicianID: technicianID,
		AssignmentID: &linkID,
	}
	if err := tx.Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}
