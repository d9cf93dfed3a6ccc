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

const subjectCollection = "subjects"

// SubjectRepository is the CRUD façade over the subject collection.
type SubjectRepository struct {
	store *store.Store
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(s *store.Store) *SubjectRepository {
	return &SubjectRepository{store: s}
}

// List returns every subject in the tenant collection.
func (r *SubjectRepository) List(ctx context.Context, schoolID string) ([]models.Subject, error) {
	var subjects []models.Subject
	if err := r.store.Read(ctx, subjectCollection, schoolID, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

// Add appends a new subject. Codes must be unique within the tenant.
func (r *SubjectRepository) Add(ctx context.Context, schoolID string, subject *models.Subject) error {
	return r.mutate(ctx, schoolID, func(subjects []models.Subject) ([]models.Subject, error) {
		for _, existing := range subjects {
			if strings.EqualFold(existing.Code, subject.Code) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
			}
		}
		if subject.ID == "" {
			subject.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		subject.CreatedAt = now
		subject.UpdatedAt = now
		return append(subjects, *subject), nil
	})
}

// Update replaces the stored record matching the subject id.
func (r *SubjectRepository) Update(ctx context.Context, schoolID string, subject *models.Subject) error {
	return r.mutate(ctx, schoolID, func(subjects []models.Subject) ([]models.Subject, error) {
		for i := range subjects {
			if subjects[i].ID == subject.ID {
				subject.CreatedAt = subjects[i].CreatedAt
				subject.UpdatedAt = time.Now().UTC()
				subjects[i] = *subject
				return subjects, nil
			}
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	})
}

// Remove deletes the subject with the given id.
func (r *SubjectRepository) Remove(ctx context.Context, schoolID, id string) error {
	return r.mutate(ctx, schoolID, func(subjects []models.Subject) ([]models.Subject, error) {
		filtered := subjects[:0]
		found := false
		for _, subject := range subjects {
			if subject.ID == id {
				found = true
				continue
			}
			filtered = append(filtered, subject)
		}
		if !found {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return filtered, nil
	})
}

func (r *SubjectRepository) mutate(ctx context.Context, schoolID string, fn func([]models.Subject) ([]models.Subject, error)) error {
	return r.store.Update(ctx, subjectCollection, schoolID, func(raw json.RawMessage) (json.RawMessage, error) {
		var subjects []models.Subject
		if err := store.DecodeList(raw, &subjects); err != nil {
			return nil, err
		}
		next, err := fn(subjects)
		if err != nil {
			return nil, err
		}
		return json.Marshal(next)
	})
}
