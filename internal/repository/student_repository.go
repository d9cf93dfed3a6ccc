package repository

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/webandapp/institute-api/internal/models"
	"github.com/webandapp/institute-api/internal/store"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

const studentCollection = "students"

// StudentRepository is the CRUD façade over the student collection.
type StudentRepository struct {
	store *store.Store
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(s *store.Store) *StudentRepository {
	return &StudentRepository{store: s}
}

// List returns every student in the tenant collection.
func (r *StudentRepository) List(ctx context.Context, schoolID string) ([]models.Student, error) {
	var students []models.Student
	if err := r.store.Read(ctx, studentCollection, schoolID, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// FindByID returns the student with the given id.
func (r *StudentRepository) FindByID(ctx context.Context, schoolID, id string) (*models.Student, error) {
	students, err := r.List(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	for i := range students {
		if students[i].ID == id {
			return &students[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

// FindByEmail resolves a student by portal email, case-insensitively.
func (r *StudentRepository) FindByEmail(ctx context.Context, schoolID, email string) (*models.Student, error) {
	students, err := r.List(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	email = strings.ToLower(email)
	for i := range students {
		if strings.ToLower(students[i].Email) == email {
			return &students[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

// Add appends a new student, assigning id, roll number and timestamps.
// The roll is max(existing)+1; the CAS loop underneath serializes
// concurrent admissions so two students never share a roll.
func (r *StudentRepository) Add(ctx context.Context, schoolID string, student *models.Student) error {
	return r.mutate(ctx, schoolID, func(students []models.Student) ([]models.Student, error) {
		if student.ID == "" {
			student.ID = uuid.NewString()
		}
		maxRoll := 0
		for _, existing := range students {
			if existing.Roll > maxRoll {
				maxRoll = existing.Roll
			}
			if strings.EqualFold(existing.Email, student.Email) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
			}
		}
		student.Roll = maxRoll + 1
		now := time.Now().UTC()
		student.CreatedAt = now
		student.UpdatedAt = now
		return append(students, *student), nil
	})
}

// Update replaces the stored record matching the student's id.
func (r *StudentRepository) Update(ctx context.Context, schoolID string, student *models.Student) error {
	return r.mutate(ctx, schoolID, func(students []models.Student) ([]models.Student, error) {
		for i := range students {
			if students[i].ID == student.ID {
				student.CreatedAt = students[i].CreatedAt
				student.Roll = students[i].Roll
				student.UpdatedAt = time.Now().UTC()
				students[i] = *student
				return students, nil
			}
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	})
}

// Mutate applies an in-place change to one student under the CAS loop.
func (r *StudentRepository) Mutate(ctx context.Context, schoolID, id string, fn func(*models.Student) error) error {
	return r.mutate(ctx, schoolID, func(students []models.Student) ([]models.Student, error) {
		for i := range students {
			if students[i].ID == id {
				if err := fn(&students[i]); err != nil {
					return nil, err
				}
				students[i].UpdatedAt = time.Now().UTC()
				return students, nil
			}
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	})
}

// Remove deletes the student with the given id.
func (r *StudentRepository) Remove(ctx context.Context, schoolID, id string) error {
	return r.mutate(ctx, schoolID, func(students []models.Student) ([]models.Student, error) {
		filtered := students[:0]
		found := false
		for _, student := range students {
			if student.ID == id {
				found = true
				continue
			}
			filtered = append(filtered, student)
		}
		if !found {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return filtered, nil
	})
}

func (r *StudentRepository) mutate(ctx context.Context, schoolID string, fn func([]models.Student) ([]models.Student, error)) error {
	return r.store.Update(ctx, studentCollection, schoolID, func(raw json.RawMessage) (json.RawMessage, error) {
		var students []models.Student
		if err := store.DecodeList(raw, &students); err != nil {
			return nil, err
		}
		next, err := fn(students)
		if err != nil {
			return nil, err
		}
		return json.Marshal(next)
	})
}
