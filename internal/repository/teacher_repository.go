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

const teacherCollection = "teachers"

// TeacherRepository is the CRUD façade over the teacher roster.
type TeacherRepository struct {
	store *store.Store
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(s *store.Store) *TeacherRepository {
	return &TeacherRepository{store: s}
}

// List returns every teacher in the tenant collection.
func (r *TeacherRepository) List(ctx context.Context, schoolID string) ([]models.Teacher, error) {
	var teachers []models.Teacher
	if err := r.store.Read(ctx, teacherCollection, schoolID, &teachers); err != nil {
		return nil, err
	}
	return teachers, nil
}

// FindByID returns the teacher with the given id.
func (r *TeacherRepository) FindByID(ctx context.Context, schoolID, id string) (*models.Teacher, error) {
	teachers, err := r.List(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	for i := range teachers {
		if teachers[i].ID == id {
			return &teachers[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
}

// Add appends a new teacher with a fresh id and timestamps.
func (r *TeacherRepository) Add(ctx context.Context, schoolID string, teacher *models.Teacher) error {
	return r.mutate(ctx, schoolID, func(teachers []models.Teacher) ([]models.Teacher, error) {
		if teacher.ID == "" {
			teacher.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		teacher.CreatedAt = now
		teacher.UpdatedAt = now
		return append(teachers, *teacher), nil
	})
}

// Update replaces the stored record matching the teacher's id.
func (r *TeacherRepository) Update(ctx context.Context, schoolID string, teacher *models.Teacher) error {
	return r.mutate(ctx, schoolID, func(teachers []models.Teacher) ([]models.Teacher, error) {
		for i := range teachers {
			if teachers[i].ID == teacher.ID {
				teacher.CreatedAt = teachers[i].CreatedAt
				teacher.UpdatedAt = time.Now().UTC()
				teachers[i] = *teacher
				return teachers, nil
			}
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	})
}

// Remove deletes the teacher with the given id.
func (r *TeacherRepository) Remove(ctx context.Context, schoolID, id string) error {
	return r.mutate(ctx, schoolID, func(teachers []models.Teacher) ([]models.Teacher, error) {
		filtered := teachers[:0]
		found := false
		for _, teacher := range teachers {
			if teacher.ID == id {
				found = true
				continue
			}
			filtered = append(filtered, teacher)
		}
		if !found {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return filtered, nil
	})
}

func (r *TeacherRepository) mutate(ctx context.Context, schoolID string, fn func([]models.Teacher) ([]models.Teacher, error)) error {
	return r.store.Update(ctx, teacherCollection, schoolID, func(raw json.RawMessage) (json.RawMessage, error) {
		var teachers []models.Teacher
		if err := store.DecodeList(raw, &teachers); err != nil {
			return nil, err
		}
		next, err := fn(teachers)
		if err != nil {
			return nil, err
		}
		return json.Marshal(next)
	})
}
