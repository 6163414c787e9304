package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/repairhub/repairhub-api/models"
)

// TransportInput raises a transport request for a job
type TransportInput struct {
	JobID           uint   `json:"job_id" validate:"required"`
	TechnicianID    uint   `json:"technician_id"`
	ServiceCenterID uint   `json:"service_center_id" validate:"required"`
	Notes           string `json:"notes" validate:"max=1000,no_markup"`
}

// TransportPatch changes a transport request; nil means keep
type TransportPatch struct {
	Notes           *string `json:"notes"`
	ServiceCenterID *uint   `json:"service_center_id"`
	Status          *string `json:"status"`
}

// TransportService manages requests to move items to a service center.
// It never touches the job or booking a request refers to.
type TransportService struct {
	store
}

// NewTransportService creates a transport service backed by db
func NewTransportService(db *gorm.DB, opts Options) *TransportService {
	return &TransportService{store: newStore(db, opts)}
}

// Create stores a pending transport request. Technicians raise requests for
// their own jobs; admins name the technician.
func (s *TransportService) Create(ctx context.Context, actor Actor, input TransportInput) (*models.TransportRequest, error) {
	switch {
	case actor.IsTechnician():
		if input.TechnicianID != 0 && input.TechnicianID != actor.ID {
			return nil, fmt.Errorf("technicians can only raise their own transport requests: %w", ErrForbidden)
		}
		input.TechnicianID = actor.ID
	case actor.IsAdmin():
	default:
		return nil, fmt.Errorf("role %s cannot create transport requests: %w", actor.Role, ErrForbidden)
	}

	input.Notes = strings.TrimSpace(input.Notes)
	verr := merge(nil, validateStruct(input))
	if input.TechnicianID == 0 {
		verr = merge(verr, fieldError("technician_id", "is required"))
	}
	if verr != nil {
		return nil, verr
	}

	var request models.TransportRequest
	err := s.inTx(ctx, "TransportService.Create", func(tx *gorm.DB) error {
		jobs := tx
		if actor.IsTechnician() {
			jobs = tx.Where("technician_id = ?", actor.ID)
		}
		var job models.Job
		if err := find(jobs, &job, "job", input.JobID); err != nil {
			return err
		}
		if err := requireTechnician(tx, input.TechnicianID); err != nil {
			return err
		}
		var center models.ServiceCenter
		if err := find(tx, &center, "service center", input.ServiceCenterID); err != nil {
			return err
		}

		request = models.TransportRequest{
			JobID:           input.JobID,
			TechnicianID:    input.TechnicianID,
			ServiceCenterID: input.ServiceCenterID,
			Status:          models.TransportPending,
			RequestDate:     s.now(),
			Notes:           input.Notes,
		}
		if err := tx.Create(&request).Error; err != nil {
			return err
		}
		return find(preloadTransport(tx), &request, "transport request", request.ID)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("transport_request_id", request.ID).
		WithField("job_id", request.JobID).
		WithField("service_center_id", request.ServiceCenterID).
		Info("transport request created")
	return &request, nil
}

// List returns the transport requests visible to actor
func (s *TransportService) List(ctx context.Context, actor Actor) ([]models.TransportRequest, error) {
	var requests []models.TransportRequest
	err := s.read(ctx, "TransportService.List", func(db *gorm.DB) error {
		q, err := scopeTransport(db, actor)
		if err != nil {
			return err
		}
		return preloadTransport(q).Order("request_date DESC").Order("id DESC").Find(&requests).Error
	})
	return requests, err
}

// Get returns one transport request visible to actor
func (s *TransportService) Get(ctx context.Context, actor Actor, id uint) (*models.TransportRequest, error) {
	var request models.TransportRequest
	err := s.read(ctx, "TransportService.Get", func(db *gorm.DB) error {
		q, err := scopeTransport(db, actor)
		if err != nil {
			return err
		}
		return find(preloadTransport(q), &request, "transport request", id)
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Update applies patch. Status moves forward one step at a time and may be
// cancelled before the item is in transit. Technicians may edit notes on
// their own requests and cancel them while pending; everything else is an
// admin action.
func (s *TransportService) Update(ctx context.Context, actor Actor, id uint, patch TransportPatch) (*models.TransportRequest, error) {
	var target models.TransportStatus
	if patch.Status != nil {
		target = models.TransportStatus(strings.TrimSpace(*patch.Status))
		if !target.IsValid() {
			return nil, fieldError("status", "must be one of: Pending, Approved, In Transit, Delivered, Cancelled")
		}
	}
	if patch.Notes != nil {
		notes := strings.TrimSpace(*patch.Notes)
		patch.Notes = &notes
		if err := validateStruct(TransportInput{JobID: 1, ServiceCenterID: 1, Notes: notes}); err != nil {
			return nil, err
		}
	}
	if actor.IsTechnician() {
		if patch.ServiceCenterID != nil {
			return nil, fmt.Errorf("technicians cannot change the destination: %w", ErrForbidden)
		}
		if target != "" && target != models.TransportCancelled {
			return nil, fmt.Errorf("technicians can only cancel transport requests: %w", ErrForbidden)
		}
	}

	var request models.TransportRequest
	var from models.TransportStatus
	err := s.inTx(ctx, "TransportService.Update", func(tx *gorm.DB) error {
		q, err := scopeTransport(tx, actor)
		if err != nil {
			return err
		}
		if actor.IsServiceCenter() {
			return fmt.Errorf("service centers cannot edit transport requests: %w", ErrForbidden)
		}
		if err := find(q, &request, "transport request", id); err != nil {
			return err
		}
		from = request.Status

		updates := map[string]interface{}{}
		if target != "" && target != from {
			if !from.CanTransitionTo(target) {
				return conflictf("transport request %d cannot move from %s to %s", id, from, target)
			}
			if actor.IsTechnician() && from != models.TransportPending {
				return conflictf("transport request %d is %s and can no longer be cancelled by a technician", id, from)
			}
			updates["status"] = target
		}
		if patch.ServiceCenterID != nil && *patch.ServiceCenterID != request.ServiceCenterID {
			if from != models.TransportPending && from != models.TransportApproved {
				return conflictf("transport request %d is %s; its destination is fixed", id, from)
			}
			var center models.ServiceCenter
			if err := find(tx, &center, "service center", *patch.ServiceCenterID); err != nil {
				return err
			}
			updates["service_center_id"] = *patch.ServiceCenterID
		}
		if patch.Notes != nil {
			updates["notes"] = *patch.Notes
		}
		if len(updates) == 0 {
			return find(preloadTransport(tx), &request, "transport request", id)
		}

		res := tx.Model(&models.TransportRequest{}).
			Where("id = ? AND status = ?", id, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return conflictf("transport request %d was changed by another request", id)
		}
		return find(preloadTransport(tx), &request, "transport request", id)
	})
	if err != nil {
		return nil, err
	}

	if request.Status != from {
		s.transitioned("transport_request", id, string(from), string(request.Status), actor)
	}
	return &request, nil
}

// Delete removes a transport request; admin only
func (s *TransportService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("only admins can delete transport requests: %w", ErrForbidden)
	}
	return s.inTx(ctx, "TransportService.Delete", func(tx *gorm.DB) error {
		var request models.TransportRequest
		if err := find(tx, &request, "transport request", id); err != nil {
			return err
		}
		if err := tx.Delete(&request).Error; err != nil {
			return err
		}
		s.log.WithField("transport_request_id", id).Info("transport request deleted")
		return nil
	})
}

// scopeTransport limits technicians to their own requests and service-center
// staff to requests bound for their center
func scopeTransport(db *gorm.DB, actor Actor) (*gorm.DB, error) {
	switch {
	case actor.IsAdmin():
		return db, nil
	case actor.IsTechnician():
		return db.Where("technician_id = ?", actor.ID), nil
	case actor.IsServiceCenter():
		if actor.ServiceCenterID == nil {
			return db.Where("1 = 0"), nil
		}
		return db.Where("service_center_id = ?", *actor.ServiceCenterID), nil
	}
	return nil, fmt.Errorf("role %s cannot view transport requests: %w", actor.Role, ErrForbidden)
}

func preloadTransport(db *gorm.DB) *gorm.DB {
	return db.Preload("Job").Preload("Technician").Preload("ServiceCenter")
}
