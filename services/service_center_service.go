package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/repairhub/repairhub-api/models"
	"github.com/repairhub/repairhub-api/utils"
)

// ServiceCenterInput registers a service center
type ServiceCenterInput struct {
	Name    string `json:"name" validate:"required,min=2,max=100,no_markup"`
	Address string `json:"address" validate:"required,min=5,max=200,no_markup"`
	Phone   string `json:"phone" validate:"required,phone"`
	Email   string `json:"email" validate:"omitempty,email"`
}

// ServiceCenterService manages the service center directory
type ServiceCenterService struct {
	store
}

// NewServiceCenterService creates a service center service backed by db
func NewServiceCenterService(db *gorm.DB, opts Options) *ServiceCenterService {
	return &ServiceCenterService{store: newStore(db, opts)}
}

// Create registers a new service center; admin only
func (s *ServiceCenterService) Create(ctx context.Context, actor Actor, input ServiceCenterInput) (*models.ServiceCenter, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("only admins can register service centers: %w", ErrForbidden)
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Address = strings.TrimSpace(input.Address)
	input.Phone = utils.StripPhoneFormatting(input.Phone)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	center := &models.ServiceCenter{
		Name:    input.Name,
		Address: input.Address,
		Phone:   utils.NormalizePhone(input.Phone),
		Email:   input.Email,
	}
	err := s.inTx(ctx, "ServiceCenterService.Create", func(tx *gorm.DB) error {
		return tx.Create(center).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("service_center_id", center.ID).Info("service center registered")
	return center, nil
}

// List returns every service center ordered by name
func (s *ServiceCenterService) List(ctx context.Context) ([]models.ServiceCenter, error) {
	var centers []models.ServiceCenter
	err := s.read(ctx, "ServiceCenterService.List", func(db *gorm.DB) error {
		return db.Order("name ASC").Find(&centers).Error
	})
	return centers, err
}

// Get returns one service center
func (s *ServiceCenterService) Get(ctx context.Context, id uint) (*models.ServiceCenter, error) {
	var center models.ServiceCenter
	err := s.read(ctx, "ServiceCenterService.Get", func(db *gorm.DB) error {
		return find(db, &center, "service center", id)
	})
	if err != nil {
		return nil, err
	}
	return &center, nil
}
