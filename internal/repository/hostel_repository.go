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

const hostelCollection = "hostelRooms"

// HostelRepository is the CRUD façade over the hostel room collection.
type HostelRepository struct {
	store *store.Store
}

// NewHostelRepository constructs a HostelRepository.
func NewHostelRepository(s *store.Store) *HostelRepository {
	return &HostelRepository{store: s}
}

// List returns every room in the tenant collection.
func (r *HostelRepository) List(ctx context.Context, schoolID string) ([]models.HostelRoom, error) {
	var rooms []models.HostelRoom
	if err := r.store.Read(ctx, hostelCollection, schoolID, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// Add registers a new room.
func (r *HostelRepository) Add(ctx context.Context, schoolID string, room *models.HostelRoom) error {
	return r.mutate(ctx, schoolID, func(rooms []models.HostelRoom) ([]models.HostelRoom, error) {
		if room.ID == "" {
			room.ID = uuid.NewString()
		}
		if room.Occupants == nil {
			room.Occupants = []string{}
		}
		now := time.Now().UTC()
		room.CreatedAt = now
		room.UpdatedAt = now
		return append(rooms, *room), nil
	})
}

// Mutate applies an in-place change to one room under the CAS loop.
func (r *HostelRepository) Mutate(ctx context.Context, schoolID, id string, fn func(*models.HostelRoom) error) error {
	return r.mutate(ctx, schoolID, func(rooms []models.HostelRoom) ([]models.HostelRoom, error) {
		for i := range rooms {
			if rooms[i].ID == id {
				if err := fn(&rooms[i]); err != nil {
					return nil, err
				}
				rooms[i].UpdatedAt = time.Now().UTC()
				return rooms, nil
			}
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
	})
}

// Remove deletes the room with the given id.
func (r *HostelRepository) Remove(ctx context.Context, schoolID, id string) error {
	return r.mutate(ctx, schoolID, func(rooms []models.HostelRoom) ([]models.HostelRoom, error) {
		filtered := rooms[:0]
		found := false
		for _, room := range rooms {
			if room.ID == id {
				found = true
				continue
			}
			filtered = append(filtered, room)
		}
		if !found {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return filtered, nil
	})
}

func (r *HostelRepository) mutate(ctx context.Context, schoolID string, fn func([]models.HostelRoom) ([]models.HostelRoom, error)) error {
	return r.store.Update(ctx, hostelCollection, schoolID, func(raw json.RawMessage) (json.RawMessage, error) {
		var rooms []models.HostelRoom
		if err := store.DecodeList(raw, &rooms); err != nil {
			return nil, err
		}
		next, err := fn(rooms)
		if err != nil {
			return nil, err
		}
		return json.Marshal(next)
	})
}
