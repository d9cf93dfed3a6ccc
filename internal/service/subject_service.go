package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, schoolID string) ([]models.Subject, error)
	Add(ctx context.Context, schoolID string, subject *models.Subject) error
	Update(ctx context.Context, schoolID string, subject *models.Subject) error
	Remove(ctx context.Context, schoolID, id string) error
}

// SubjectRequest holds payload for creating and updating subjects.
type SubjectRequest struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required"`
}

// SubjectService handles taught-discipline management.
type SubjectService struct {
	repo      subjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs the subject service.
func NewSubjectService(repo subjectRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, validator: validate, logger: logger}
}

// List returns every subject of the tenant.
func (s *SubjectService) List(ctx context.Context, schoolID string) ([]models.Subject, error) {
	return s.repo.List(ctx, schoolID)
}

// Create adds a subject. The code must be unique within the tenant.
func (s *SubjectService) Create(ctx context.Context, schoolID string, req SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject := &models.Subject{Name: req.Name, Code: req.Code}
	if err := s.repo.Add(ctx, schoolID, subject); err != nil {
		return nil, err
	}
	return subject, nil
}

// Update edits a subject.
func (s *SubjectService) Update(ctx context.Context, schoolID, id string, req SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject := &models.Subject{ID: id, Name: req.Name, Code: req.Code}
	if err := s.repo.Update(ctx, schoolID, subject); err != nil {
		return nil, err
	}
	return subject, nil
}

// Remove deletes a subject.
func (s *SubjectService) Remove(ctx context.Context, schoolID, id string) error {
	return s.repo.Remove(ctx, schoolID, id)
}
