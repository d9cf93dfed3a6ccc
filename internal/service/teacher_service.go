package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/media"
)

type teacherRepository interface {
	List(ctx context.Context, schoolID string) ([]models.Teacher, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.Teacher, error)
	Add(ctx context.Context, schoolID string, teacher *models.Teacher) error
	Update(ctx context.Context, schoolID string, teacher *models.Teacher) error
	Remove(ctx context.Context, schoolID, id string) error
}

// TeacherRequest holds payload for creating and updating teachers.
type TeacherRequest struct {
	FullName      string `json:"full_name" validate:"required"`
	Qualification string `json:"qualification"`
	Phone         string `json:"phone"`
	Salary        int64  `json:"salary" validate:"gte=0"`
	JoiningDate   string `json:"joining_date" validate:"required"`
	Photo         string `json:"photo"`
}

// TeacherService handles teaching-staff use-cases.
type TeacherService struct {
	repo      teacherRepository
	photos    *media.Storage
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs the teacher service.
func NewTeacherService(repo teacherRepository, photos *media.Storage, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, photos: photos, validator: validate, logger: logger}
}

// List returns every teacher of the tenant.
func (s *TeacherService) List(ctx context.Context, schoolID string) ([]models.Teacher, error) {
	return s.repo.List(ctx, schoolID)
}

// Get returns one teacher.
func (s *TeacherService) Get(ctx context.Context, schoolID, id string) (*models.Teacher, error) {
	return s.repo.FindByID(ctx, schoolID, id)
}

// Create registers a new teacher.
func (s *TeacherService) Create(ctx context.Context, schoolID string, req TeacherRequest) (*models.Teacher, error) {
	teacher, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Add(ctx, schoolID, teacher); err != nil {
		return nil, err
	}
	return teacher, nil
}

// Update edits a teacher record.
func (s *TeacherService) Update(ctx context.Context, schoolID, id string, req TeacherRequest) (*models.Teacher, error) {
	teacher, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	teacher.ID = id
	if teacher.PhotoURL == "" {
		if existing, err := s.repo.FindByID(ctx, schoolID, id); err == nil {
			teacher.PhotoURL = existing.PhotoURL
		}
	}
	if err := s.repo.Update(ctx, schoolID, teacher); err != nil {
		return nil, err
	}
	return teacher, nil
}

// Remove deletes a teacher record.
func (s *TeacherService) Remove(ctx context.Context, schoolID, id string) error {
	return s.repo.Remove(ctx, schoolID, id)
}

func (s *TeacherService) fromRequest(req TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	joined, err := time.Parse("2006-01-02", req.JoiningDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "joining_date must be YYYY-MM-DD")
	}

	teacher := &models.Teacher{
		FullName:      req.FullName,
		Qualification: req.Qualification,
		Phone:         req.Phone,
		Salary:        req.Salary,
		JoiningDate:   joined,
	}

	if req.Photo != "" && s.photos != nil && media.IsDataURI(req.Photo) {
		relPath, err := s.photos.SaveDataURI(req.Photo)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid photo payload")
		}
		teacher.PhotoURL = relPath
	} else if req.Photo != "" {
		teacher.PhotoURL = req.Photo
	}
	return teacher, nil
}
