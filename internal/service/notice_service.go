package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/media"
)

type noticeRepository interface {
	List(ctx context.Context) ([]models.Notice, error)
	Add(ctx context.Context, notice *models.Notice) error
	Remove(ctx context.Context, id string) error
}

type jobRepository interface {
	List(ctx context.Context) ([]models.JobPosting, error)
	Add(ctx context.Context, job *models.JobPosting) error
	Remove(ctx context.Context, id string) error
}

// NoticeRequest holds payload for publishing a notice.
type NoticeRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// JobPostingRequest holds payload for publishing a vacancy.
type JobPostingRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Photo       string `json:"photo"`
}

// NoticeService manages public announcements and vacancy postings. Both
// collections are global so the marketing site can read them without a
// tenant context.
type NoticeService struct {
	notices   noticeRepository
	jobs      jobRepository
	photos    *media.Storage
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNoticeService constructs the notice service.
func NewNoticeService(notices noticeRepository, jobs jobRepository, photos *media.Storage, validate *validator.Validate, logger *zap.Logger) *NoticeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoticeService{notices: notices, jobs: jobs, photos: photos, validator: validate, logger: logger}
}

// ListNotices returns every notice, newest first.
func (s *NoticeService) ListNotices(ctx context.Context) ([]models.Notice, error) {
	return s.notices.List(ctx)
}

// PublishNotice adds a notice.
func (s *NoticeService) PublishNotice(ctx context.Context, req NoticeRequest) (*models.Notice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}
	notice := &models.Notice{Title: req.Title, Content: req.Content}
	if err := s.notices.Add(ctx, notice); err != nil {
		return nil, err
	}
	return notice, nil
}

// RemoveNotice deletes a notice.
func (s *NoticeService) RemoveNotice(ctx context.Context, id string) error {
	return s.notices.Remove(ctx, id)
}

// ListJobs returns every vacancy posting, newest first.
func (s *NoticeService) ListJobs(ctx context.Context) ([]models.JobPosting, error) {
	return s.jobs.List(ctx)
}

// PublishJob adds a vacancy posting with an optional photo.
func (s *NoticeService) PublishJob(ctx context.Context, req JobPostingRequest) (*models.JobPosting, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid job posting payload")
	}
	job := &models.JobPosting{Title: req.Title, Description: req.Description}
	if req.Photo != "" && s.photos != nil && media.IsDataURI(req.Photo) {
		relPath, err := s.photos.SaveDataURI(req.Photo)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid photo payload")
		}
		job.PhotoURL = relPath
	} else if req.Photo != "" {
		job.PhotoURL = req.Photo
	}
	if err := s.jobs.Add(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// RemoveJob deletes a vacancy posting.
func (s *NoticeService) RemoveJob(ctx context.Context, id string) error {
	return s.jobs.Remove(ctx, id)
}
