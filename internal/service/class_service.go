package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, schoolID string) ([]models.Class, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.Class, error)
	Add(ctx context.Context, schoolID string, class *models.Class) error
	Update(ctx context.Context, schoolID string, class *models.Class) error
	Remove(ctx context.Context, schoolID, id string) error
}

type classTeacherLookup interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.Teacher, error)
}

// ClassRequest holds payload for creating and updating classes.
type ClassRequest struct {
	Name      string `json:"name" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

// ClassService handles class management. Every class must reference an
// existing teacher.
type ClassService struct {
	repo      classRepository
	teachers  classTeacherLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs the class service.
func NewClassService(repo classRepository, teachers classTeacherLookup, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, teachers: teachers, validator: validate, logger: logger}
}

// List returns every class of the tenant.
func (s *ClassService) List(ctx context.Context, schoolID string) ([]models.Class, error) {
	return s.repo.List(ctx, schoolID)
}

// Create adds a class after validating the teacher reference.
func (s *ClassService) Create(ctx context.Context, schoolID string, req ClassRequest) (*models.Class, error) {
	if err := s.checkRequest(ctx, schoolID, req); err != nil {
		return nil, err
	}
	class := &models.Class{Name: req.Name, TeacherID: req.TeacherID}
	if err := s.repo.Add(ctx, schoolID, class); err != nil {
		return nil, err
	}
	return class, nil
}

// Update edits a class after validating the teacher reference.
func (s *ClassService) Update(ctx context.Context, schoolID, id string, req ClassRequest) (*models.Class, error) {
	if err := s.checkRequest(ctx, schoolID, req); err != nil {
		return nil, err
	}
	class := &models.Class{ID: id, Name: req.Name, TeacherID: req.TeacherID}
	if err := s.repo.Update(ctx, schoolID, class); err != nil {
		return nil, err
	}
	return class, nil
}

// Remove deletes a class.
func (s *ClassService) Remove(ctx context.Context, schoolID, id string) error {
	return s.repo.Remove(ctx, schoolID, id)
}

func (s *ClassService) checkRequest(ctx context.Context, schoolID string, req ClassRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if _, err := s.teachers.FindByID(ctx, schoolID, req.TeacherID); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrNotFound.Code {
			return appErrors.Clone(appErrors.ErrValidation, "teacher_id does not reference an existing teacher")
		}
		return err
	}
	return nil
}
