package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/repairhub/repairhub-api/models"
)

// Start moves a confirmed booking the technician is assigned to into
// in-progress
func (s *BookingService) Start(ctx context.Context, actor Actor, id uint) (*models.Booking, error) {
	if !actor.IsTechnician() {
		return nil, fmt.Errorf("only technicians can start bookings: %w", ErrForbidden)
	}

	var booking models.Booking
	err := s.inTx(ctx, "BookingService.Start", func(tx *gorm.DB) error {
		if err := findAssignedBooking(tx, actor, id, &booking); err != nil {
			return err
		}
		if booking.Status != models.BookingConfirmed {
			return conflictf("booking %d is %s; only confirmed bookings can be started", id, booking.Status)
		}
		if err := casBooking(tx, &booking, map[string]interface{}{"status": models.BookingInProgress}); err != nil {
			return err
		}
		return find(tx.Preload("TechnicianAssigned"), &booking, "booking", id)
	})
	if err != nil {
		return nil, err
	}

	s.transitioned("booking", id, string(models.BookingConfirmed), string(models.BookingInProgress), actor)
	return &booking, nil
}

// Complete finishes a confirmed or in-progress booking and closes the
// assignment links still open for it, all in one transaction
func (s *BookingService) Complete(ctx context.Context, actor Actor, id uint) (*models.Booking, error) {
	if !actor.IsTechnician() {
		return nil, fmt.Errorf("only technicians can complete bookings: %w", ErrForbidden)
	}

	var booking models.Booking
	var from models.BookingStatus
	var closed int64
	err := s.inTx(ctx, "BookingService.Complete", func(tx *gorm.DB) error {
		if err := findAssignedBooking(tx, actor, id, &booking); err != nil {
			return err
		}
		from = booking.Status
		if !from.CanTransitionTo(models.BookingCompleted) {
			return conflictf("booking %d is %s and cannot be completed", id, from)
		}
		if err := casBooking(tx, &booking, map[string]interface{}{"status": models.BookingCompleted}); err != nil {
			return err
		}

		res := tx.Model(&models.ServiceCenterBooking{}).
			Where("booking_id = ? AND status = ?", id, models.AssignmentInProgress).
			Update("status", models.AssignmentCompleted)
		if res.Error != nil {
			return res.Error
		}
		closed = res.RowsAffected

		return find(tx.Preload("TechnicianAssigned"), &booking, "booking", id)
	})
	if err != nil {
		return nil, err
	}

	s.transitioned("booking", id, string(from), string(models.BookingCompleted), actor)
	if closed > 0 {
		s.log.WithField("booking_id", id).WithField("links", closed).Info("assignment links completed")
	}
	return &booking, nil
}

// ListAssigned returns the bookings assigned to the technician actor,
// soonest preferred date first
func (s *BookingService) ListAssigned(ctx context.Context, actor Actor) ([]models.Booking, error) {
	if !actor.IsTechnician() {
		return nil, fmt.Errorf("only technicians have assigned bookings: %w", ErrForbidden)
	}

	var bookings []models.Booking
	err := s.read(ctx, "BookingService.ListAssigned", func(db *gorm.DB) error {
		return db.Where("technician_assigned_id = ?", actor.ID).
			Order("preferred_date ASC").
			Order("id ASC").
			Find(&bookings).Error
	})
	return bookings, err
}

// findAssignedBooking loads booking id if the technician is bound to it,
// either directly or through an assignment link. Any other booking is
// reported as not found.
func findAssignedBooking(tx *gorm.DB, actor Actor, id uint, dest *models.Booking) error {
	if err := find(tx, dest, "booking", id); err != nil {
		return err
	}
	if dest.TechnicianAssignedID != nil && *dest.TechnicianAssignedID == actor.ID {
		return nil
	}

	var links int64
	err := tx.Model(&models.ServiceCenterBooking{}).
		Where("booking_id = ? AND technician_id = ?", id, actor.ID).
		Count(&links).Error
	if err != nil {
		return err
	}
	if links == 0 {
		return notFound("booking", id)
	}
	return nil
}
