package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/webandapp/institute-api/internal/models"
	"github.com/webandapp/institute-api/internal/store"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

const transportCollection = "transportVehicles"

// TransportRepository is the CRUD façade over the vehicle roster.
type TransportRepository struct {
	store *store.Store
}

// NewTransportRepository constructs a TransportRepository.
func NewTransportRepository(s *store.Store) *TransportRepository {
	return &TransportRepository{store: s}
}

// List returns every vehicle in the tenant roster.
func (r *TransportRepository) List(ctx context.Context, schoolID string) ([]models.TransportVehicle, error) {
	var vehicles []models.TransportVehicle
	if err := r.store.Read(ctx, transportCollection, schoolID, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// Add registers a new vehicle.
func (r *TransportRepository) Add(ctx context.Context, schoolID string, vehicle *models.TransportVehicle) error {
	return r.mutate(ctx, schoolID, func(vehicles []models.TransportVehicle) ([]models.TransportVehicle, error) {
		if vehicle.ID == "" {
			vehicle.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		vehicle.CreatedAt = now
		vehicle.UpdatedAt = now
		return append(vehicles, *vehicle), nil
	})
}

// Update replaces the stored record matching the vehicle id.
func (r *TransportRepository) Update(ctx context.Context, schoolID string, vehicle *models.TransportVehicle) error {
	return r.mutate(ctx, schoolID, func(vehicles []models.TransportVehicle) ([]models.TransportVehicle, error) {
		for i := range vehicles {
			if vehicles[i].ID == vehicle.ID {
				vehicle.CreatedAt = vehicles[i].CreatedAt
				vehicle.UpdatedAt = time.Now().UTC()
				vehicles[i] = *vehicle
				return vehicles, nil
			}
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "vehicle not found")
	})
}

// Remove deletes the vehicle with the given id.
func (r *TransportRepository) Remove(ctx context.Context, schoolID, id string) error {
	return r.mutate(ctx, schoolID, func(vehicles []models.TransportVehicle) ([]models.TransportVehicle, error) {
		filtered := vehicles[:0]
		found := false
		for _, vehicle := range vehicles {
			if vehicle.ID == id {
				found = true
				continue
			}
			filtered = append(filtered, vehicle)
		}
		if !found {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "vehicle not found")
		}
		return filtered, nil
	})
}

func (r *TransportRepository) mutate(ctx context.Context, schoolID string, fn func([]models.TransportVehicle) ([]models.TransportVehicle, error)) error {
	return r.store.Update(ctx, transportCollection, schoolID, func(raw json.RawMessage) (json.RawMessage, error) {
		var vehicles []models.TransportVehicle
		if err := store.DecodeList(raw, &vehicles); err != nil {
			return nil, err
		}
		next, err := fn(vehicles)
		if err != nil {
			return nil, err
		}
		return json.Marshal(next)
	})
}
