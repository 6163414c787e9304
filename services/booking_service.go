package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/repairhub/repairhub-api/models"
	"github.com/repairhub/repairhub-api/utils"
)

// BookingInput is the customer-supplied content of a booking
type BookingInput struct {
	Name          string `json:"name" validate:"required,min=2,max=50,person_name"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"required,phone"`
	Address       string `json:"address" validate:"required,min=10,max=200,no_markup"`
	ServiceType   string `json:"service_type" validate:"required,oneof=refrigerator washing_machine air_conditioner microwave dishwasher oven water_heater television other"`
	PreferredDate string `json:"preferred_date" validate:"required"`
	PreferredTime string `json:"preferred_time" validate:"omitempty,oneof=morning afternoon evening"`
	Description   string `json:"description" validate:"max=500,no_markup"`
}

// BookingPatch carries the fields a customer wants to change; nil means keep
type BookingPatch struct {
	Name          *string `json:"name"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	ServiceType   *string `json:"service_type"`
	PreferredDate *string `json:"preferred_date"`
	PreferredTime *string `json:"preferred_time"`
	Description   *string `json:"description"`
}

// BookingFilter narrows admin listings
type BookingFilter struct {
	Status models.BookingStatus
}

// BookingService owns the booking record: creation, customer edits,
// cancellation and the technician-driven execution states
type BookingService struct {
	store
}

// NewBookingService creates a booking service backed by db
func NewBookingService(db *gorm.DB, opts Options) *BookingService {
	return &BookingService{store: newStore(db, opts)}
}

// Create validates input and stores a new pending booking owned by the
// customer actor
func (s *BookingService) Create(ctx context.Context, actor Actor, input BookingInput) (*models.Booking, error) {
	if !actor.IsCustomer() {
		return nil, fmt.Errorf("only customers can create bookings: %w", ErrForbidden)
	}

	now := s.now()
	input = cleanBookingInput(input)
	date, err := checkBookingInput(input, true, now)
	if err != nil {
		return nil, err
	}

	reference, err := utils.NewBookingReference(now)
	if err != nil {
		return nil, fmt.Errorf("generate booking reference: %w", err)
	}

	booking := &models.Booking{
		BookingReference: reference,
		CustomerID:       actor.ID,
		Name:             input.Name,
		Email:            input.Email,
		Phone:            utils.NormalizePhone(input.Phone),
		Address:          input.Address,
		ServiceType:      models.ServiceType(input.ServiceType),
		PreferredDate:    date,
		PreferredTime:    models.PreferredTime(input.PreferredTime),
		Description:      input.Description,
		Status:           models.BookingPending,
		Version:          1,
	}

	err = s.inTx(ctx, "BookingService.Create", func(tx *gorm.DB) error {
		if err := ensureNoActiveDuplicate(tx, booking.Email, booking.PreferredDate, 0); err != nil {
			return err
		}
		return tx.Create(booking).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("booking_id", booking.ID).
		WithField("reference", booking.BookingReference).
		Info("booking created")
	return booking, nil
}

// List returns the customer's own bookings, or every booking for admins
func (s *BookingService) List(ctx context.Context, actor Actor, filter BookingFilter) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.read(ctx, "BookingService.List", func(db *gorm.DB) error {
		q, err := scopeBookings(db, actor)
		if err != nil {
			return err
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		return q.Preload("TechnicianAssigned").Order("created_at DESC").Find(&bookings).Error
	})
	return bookings, err
}

// Get returns one booking visible to actor. A booking owned by another
// customer is reported as not found.
func (s *BookingService) Get(ctx context.Context, actor Actor, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.read(ctx, "BookingService.Get", func(db *gorm.DB) error {
		q, err := scopeBookings(db, actor)
		if err != nil {
			return err
		}
		return find(q.Preload("TechnicianAssigned"), &booking, "booking", id)
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// Update applies patch to a booking that is neither completed nor cancelled
func (s *BookingService) Update(ctx context.Context, actor Actor, id uint, patch BookingPatch) (*models.Booking, error) {
	var booking models.Booking
	err := s.inTx(ctx, "BookingService.Update", func(tx *gorm.DB) error {
		q, err := scopeBookings(tx, actor)
		if err != nil {
			return err
		}
		if err := find(q, &booking, "booking", id); err != nil {
			return err
		}
		if booking.Status.IsTerminal() {
			return conflictf("booking %d is %s and can no longer be edited", id, booking.Status)
		}

		input := cleanBookingInput(applyBookingPatch(bookingInputOf(&booking), patch))
		date, err := checkBookingInput(input, patch.PreferredDate != nil, s.now())
		if err != nil {
			return err
		}
		if date == "" {
			date = booking.PreferredDate
		}

		if input.Email != booking.Email || date != booking.PreferredDate {
			if err := ensureNoActiveDuplicate(tx, input.Email, date, booking.ID); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"name":           input.Name,
			"email":          input.Email,
			"phone":          utils.NormalizePhone(input.Phone),
			"address":        input.Address,
			"service_type":   input.ServiceType,
			"preferred_date": date,
			"preferred_time": input.PreferredTime,
			"description":    input.Description,
		}
		if err := casBooking(tx, &booking, updates); err != nil {
			return err
		}
		return find(tx.Preload("TechnicianAssigned"), &booking, "booking", id)
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// Cancel moves a pending or confirmed booking to cancelled. Assignment
// links, jobs and transport requests created for it are left untouched.
func (s *BookingService) Cancel(ctx context.Context, actor Actor, id uint) (*models.Booking, error) {
	var booking models.Booking
	var from models.BookingStatus
	err := s.inTx(ctx, "BookingService.Cancel", func(tx *gorm.DB) error {
		q, err := scopeBookings(tx, actor)
		if err != nil {
			return err
		}
		if err := find(q, &booking, "booking", id); err != nil {
			return err
		}
		from = booking.Status
		if !from.CanTransitionTo(models.BookingCancelled) {
			return conflictf("booking %d is %s and cannot be cancelled", id, from)
		}
		if err := casBooking(tx, &booking, map[string]interface{}{"status": models.BookingCancelled}); err != nil {
			return err
		}
		return find(tx.Preload("TechnicianAssigned"), &booking, "booking", id)
	})
	if err != nil {
		return nil, err
	}

	s.transitioned("booking", id, string(from), string(models.BookingCancelled), actor)
	return &booking, nil
}

// Delete removes a booking unless it has been completed
func (s *BookingService) Delete(ctx context.Context, actor Actor, id uint) error {
	return s.inTx(ctx, "BookingService.Delete", func(tx *gorm.DB) error {
		q, err := scopeBookings(tx, actor)
		if err != nil {
			return err
		}
		var booking models.Booking
		if err := find(q, &booking, "booking", id); err != nil {
			return err
		}
		if booking.Status == models.BookingCompleted {
			return conflictf("booking %d is completed and cannot be deleted", id)
		}

		res := tx.Where("version = ?", booking.Version).Delete(&models.Booking{}, booking.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return conflictf("booking %d was changed by another request", id)
		}
		s.log.WithField("booking_id", id).WithField("actor_id", actor.ID).Info("booking deleted")
		return nil
	})
}

// scopeBookings restricts customers to their own bookings. Admins see all;
// other roles go through the technician or assignment operations.
func scopeBookings(db *gorm.DB, actor Actor) (*gorm.DB, error) {
	switch {
	case actor.IsCustomer():
		return db.Where("customer_id = ?", actor.ID), nil
	case actor.IsAdmin():
		return db, nil
	}
	return nil, fmt.Errorf("role %s cannot manage bookings: %w", actor.Role, ErrForbidden)
}

// ensureNoActiveDuplicate enforces one non-cancelled booking per
// (email, preferred date)
func ensureNoActiveDuplicate(tx *gorm.DB, email, date string, excludeID uint) error {
	q := tx.Model(&models.Booking{}).
		Where("email = ? AND preferred_date = ? AND status <> ?", email, date, models.BookingCancelled)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return conflictf("an active booking already exists for %s on %s", email, date)
	}
	return nil
}

// casBooking writes updates only if the booking still has the status and
// version it was read with, bumping the version
func casBooking(tx *gorm.DB, booking *models.Booking, updates map[string]interface{}) error {
	updates["version"] = gorm.Expr("version + ?", 1)
	res := tx.Model(&models.Booking{}).
		Where("id = ? AND status = ? AND version = ?", booking.ID, booking.Status, booking.Version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return conflictf("booking %d was changed by another request", booking.ID)
	}
	return nil
}

func cleanBookingInput(in BookingInput) BookingInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = utils.StripPhoneFormatting(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.ServiceType = strings.TrimSpace(in.ServiceType)
	in.PreferredTime = strings.ToLower(strings.TrimSpace(in.PreferredTime))
	in.Description = strings.TrimSpace(in.Description)
	return in
}

// checkBookingInput validates every field and, when checkDate is set,
// returns the preferred date normalized to YYYY-MM-DD
func checkBookingInput(in BookingInput, checkDate bool, now time.Time) (string, error) {
	verr := merge(nil, validateStruct(in))

	var date string
	if checkDate && in.PreferredDate != "" {
		var err error
		date, err = parsePreferredDate(in.PreferredDate, now)
		verr = merge(verr, err)
	}

	if verr != nil {
		return "", verr
	}
	return date, nil
}

func bookingInputOf(b *models.Booking) BookingInput {
	return BookingInput{
		Name:          b.Name,
		Email:         b.Email,
		Phone:         b.Phone,
		Address:       b.Address,
		ServiceType:   string(b.ServiceType),
		PreferredDate: b.PreferredDate,
		PreferredTime: string(b.PreferredTime),
		Description:   b.Description,
	}
}

func applyBookingPatch(in BookingInput, p BookingPatch) BookingInput {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&in.Name, p.Name)
	set(&in.Email, p.Email)
	set(&in.Phone, p.Phone)
	set(&in.Address, p.Address)
	set(&in.ServiceType, p.ServiceType)
	set(&in.PreferredDate, p.PreferredDate)
	set(&in.PreferredTime, p.PreferredTime)
	set(&in.Description, p.Description)
	return in
}
