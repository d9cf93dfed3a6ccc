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

const classCollection = "classes"

// ClassRepository is the CRUD façade over the class collection.
type ClassRepository struct {
	store *store.Store
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(s *store.Store) *ClassRepository {
	return &ClassRepository{store: s}
}

// List returns every class in the tenant collection.
func (r *ClassRepository) List(ctx context.Context, schoolID string) ([]models.Class, error) {
	var classes []models.Class
	if err := r.store.Read(ctx, classCollection, schoolID, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

// FindByID returns the class with the given id.
func (r *ClassRepository) FindByID(ctx context.Context, schoolID, id string) (*models.Class, error) {
	classes, err := r.List(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	for i := range classes {
		if classes[i].ID == id {
			return &classes[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
}

// Add appends a new class with a fresh id and timestamps.
func (r *ClassRepository) Add(ctx context.Context, schoolID string, class *models.Class) error {
	return r.mutate(ctx, schoolID, func(classes []models.Class) ([]models.Class, error) {
		if class.ID == "" {
			class.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		class.CreatedAt = now
		class.UpdatedAt = now
		return append(classes, *class), nil
	})
}

// Update replaces the stored record matching the class id.
func (r *ClassRepository) Update(ctx context.Context, schoolID string, class *models.Class) error {
	return r.mutate(ctx, schoolID, func(classes []models.Class) ([]models.Class, error) {
		for i := range classes {
			if classes[i].ID == class.ID {
				class.CreatedAt = classes[i].CreatedAt
				class.UpdatedAt = time.Now().UTC()
				classes[i] = *class
				return classes, nil
			}
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	})
}

// Remove deletes the class with the given id.
func (r *ClassRepository) Remove(ctx context.Context, schoolID, id string) error {
	return r.mutate(ctx, schoolID, func(classes []models.Class) ([]models.Class, error) {
		filtered := classes[:0]
		found := false
		for _, class := range classes {
			if class.ID == id {
				found = true
				continue
			}
			filtered = append(filtered, class)
		}
		if !found {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return filtered, nil
	})
}

func (r *ClassRepository) mutate(ctx context.Context, schoolID string, fn func([]models.Class) ([]models.Class, error)) error {
	return r.store.Update(ctx, classCollection, schoolID, func(raw json.RawMessage) (json.RawMessage, error) {
		var classes []models.Class
		if err := store.DecodeList(raw, &classes); err != nil {
			return nil, err
		}
		next, err := fn(classes)
		if err != nil {
			return nil, err
		}
		return json.Marshal(next)
	})
}
