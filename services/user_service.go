package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/repairhub/repairhub-api/models"
)

// ProfileInput is the editable part of a user's own profile
type ProfileInput struct {
	Name  string `json:"name" validate:"omitempty,min=2,max=100"`
	Email string `json:"email" validate:"omitempty,email"`
}

// StaffInput sets a user's role and, for service-center staff and
// technicians, the center they belong to
type StaffInput struct {
	Role            string `json:"role" validate:"required,oneof=customer admin technician service_center"`
	ServiceCenterID *uint  `json:"service_center_id"`
}

// UserService manages the user directory backing the actor model
type UserService struct {
	store
}

// NewUserService creates a user service backed by db
func NewUserService(db *gorm.DB, opts Options) *UserService {
	return &UserService{store: newStore(db, opts)}
}

// Register creates the user row for a verified Auth0 identity
func (s *UserService) Register(ctx context.Context, auth0ID string, info Auth0UserInfo, role models.Role) (*models.User, error) {
	if role == "" {
		role = models.RoleCustomer
	}

	var verr *ValidationError
	if strings.TrimSpace(info.Email) == "" {
		verr = merge(verr, fieldError("email", "is required"))
	}
	if strings.TrimSpace(info.Name) == "" {
		verr = merge(verr, fieldError("name", "is required"))
	}
	if !role.IsValid() {
		verr = merge(verr, fieldError("role", "must be one of: customer, admin, technician, service_center"))
	}
	if verr != nil {
		return nil, verr
	}

	user := &models.User{
		Auth0ID: auth0ID,
		Name:    strings.TrimSpace(info.Name),
		Email:   strings.ToLower(strings.TrimSpace(info.Email)),
		Role:    role,
	}
	err := s.inTx(ctx, "UserService.Register", func(tx *gorm.DB) error {
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).WithField("role", user.Role).Info("user registered")
	return user, nil
}

// GetByAuth0ID returns the user bound to an Auth0 subject
func (s *UserService) GetByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error) {
	var user models.User
	err := s.read(ctx, "UserService.GetByAuth0ID", func(db *gorm.DB) error {
		err := db.Where("auth0_id = ?", auth0ID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %q: %w", auth0ID, ErrNotFound)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes the name or email of the user bound to auth0ID
func (s *UserService) UpdateProfile(ctx context.Context, auth0ID string, input ProfileInput) (*models.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	var user models.User
	err := s.inTx(ctx, "UserService.UpdateProfile", func(tx *gorm.DB) error {
		if err := tx.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %q: %w", auth0ID, ErrNotFound)
			}
			return err
		}

		updates := map[string]interface{}{}
		if input.Name != "" {
			updates["name"] = input.Name
		}
		if input.Email != "" {
			updates["email"] = input.Email
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return find(tx, &user, "user", user.ID)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetStaff changes a user's role and center; admin only. Service-center
// staff must name the center they operate.
func (s *UserService) SetStaff(ctx context.Context, actor Actor, userID uint, input StaffInput) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("only admins can manage staff: %w", ErrForbidden)
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	role := models.Role(input.Role)
	if role == models.RoleServiceCenter && input.ServiceCenterID == nil {
		return nil, fieldError("service_center_id", "is required for service center staff")
	}

	var user models.User
	err := s.inTx(ctx, "UserService.SetStaff", func(tx *gorm.DB) error {
		if err := find(tx, &user, "user", userID); err != nil {
			return err
		}
		if input.ServiceCenterID != nil {
			var center models.ServiceCenter
			if err := find(tx, &center, "service center", *input.ServiceCenterID); err != nil {
				return err
			}
		}
		if user.Role == models.RoleTechnician && role != models.RoleTechnician {
			if err := ensureNoTechnicianWork(tx, user.ID); err != nil {
				return err
			}
		}
		err := tx.Model(&user).Updates(map[string]interface{}{
			"role":              role,
			"service_center_id": input.ServiceCenterID,
		}).Error
		if err != nil {
			return err
		}
		return find(tx, &user, "user", userID)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", userID).WithField("role", role).WithField("actor_id", actor.ID).Info("staff role updated")
	return &user, nil
}

// ensureNoTechnicianWork fails with ErrConflict while any booking, link or
// open job still references the technician; they must keep that role.
func ensureNoTechnicianWork(tx *gorm.DB, technicianID uint) error {
	checks := []struct {
		what  string
		query *gorm.DB
	}{
		{"bookings", tx.Model(&models.Booking{}).Where("technician_assigned_id = ?", technicianID)},
		{"service center assignments", tx.Model(&models.ServiceCenterBooking{}).Where("technician_id = ?", technicianID)},
		{"open jobs", tx.Model(&models.Job{}).Where("technician_id = ? AND status NOT IN ?", technicianID,
			[]models.JobStatus{models.JobCompleted, models.JobCancelled})},
	}
	for _, c := range checks {
		var count int64
		if err := c.query.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflictf("technician %d is still referenced by %d %s", technicianID, count, c.what)
		}
	}
	return nil
}

// ListTechnicians returns technicians, limited to their home center for
// service-center staff
func (s *UserService) ListTechnicians(ctx context.Context, actor Actor) ([]models.User, error) {
	if !actor.IsAdmin() && !actor.IsServiceCenter() {
		return nil, fmt.Errorf("role %s cannot list technicians: %w", actor.Role, ErrForbidden)
	}

	var users []models.User
	err := s.read(ctx, "UserService.ListTechnicians", func(db *gorm.DB) error {
		q := db.Where("role = ?", models.RoleTechnician)
		if actor.IsServiceCenter() {
			if actor.ServiceCenterID == nil {
				return nil
			}
			q = q.Where("service_center_id = ?", *actor.ServiceCenterID)
		}
		return q.Order("name ASC").Find(&users).Error
	})
	return users, err
}
