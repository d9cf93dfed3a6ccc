package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

type transportRepository interface {
	List(ctx context.Context, schoolID string) ([]models.TransportVehicle, error)
	Add(ctx context.Context, schoolID string, vehicle *models.TransportVehicle) error
	Update(ctx context.Context, schoolID string, vehicle *models.TransportVehicle) error
	Remove(ctx context.Context, schoolID, id string) error
}

// VehicleRequest holds payload for roster changes.
type VehicleRequest struct {
	Number        string `json:"number" validate:"required"`
	DriverName    string `json:"driver_name" validate:"required"`
	DriverContact string `json:"driver_contact"`
	Route         string `json:"route" validate:"required"`
}

// TransportService manages the vehicle roster.
type TransportService struct {
	repo      transportRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTransportService constructs the transport service.
func NewTransportService(repo transportRepository, validate *validator.Validate, logger *zap.Logger) *TransportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransportService{repo: repo, validator: validate, logger: logger}
}

// List returns every vehicle of the tenant.
func (s *TransportService) List(ctx context.Context, schoolID string) ([]models.TransportVehicle, error) {
	return s.repo.List(ctx, schoolID)
}

// Create adds a vehicle to the roster.
func (s *TransportService) Create(ctx context.Context, schoolID string, req VehicleRequest) (*models.TransportVehicle, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid vehicle payload")
	}
	vehicle := &models.TransportVehicle{
		Number:        req.Number,
		DriverName:    req.DriverName,
		DriverContact: req.DriverContact,
		Route:         req.Route,
	}
	if err := s.repo.Add(ctx, schoolID, vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// Update edits a roster entry.
func (s *TransportService) Update(ctx context.Context, schoolID, id string, req VehicleRequest) (*models.TransportVehicle, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid vehicle payload")
	}
	vehicle := &models.TransportVehicle{
		ID:            id,
		Number:        req.Number,
		DriverName:    req.DriverName,
		DriverContact: req.DriverContact,
		Route:         req.Route,
	}
	if err := s.repo.Update(ctx, schoolID, vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// Remove deletes a roster entry.
func (s *TransportService) Remove(ctx context.Context, schoolID, id string) error {
	return s.repo.Remove(ctx, schoolID, id)
}
