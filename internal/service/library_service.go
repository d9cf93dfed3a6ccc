package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

type libraryRepository interface {
	List(ctx context.Context, schoolID string) ([]models.LibraryBook, error)
	Add(ctx context.Context, schoolID string, book *models.LibraryBook) error
	Mutate(ctx context.Context, schoolID, id string, fn func(*models.LibraryBook) error) error
	Remove(ctx context.Context, schoolID, id string) error
}

type libraryStudentLookup interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.Student, error)
}

// BookRequest holds payload for adding a library book.
type BookRequest struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
}

// LibraryService manages book circulation. Issue and return run inside the
// per-book mutation so two librarians cannot issue the same copy twice.
type LibraryService struct {
	repo      libraryRepository
	students  libraryStudentLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLibraryService constructs the library service.
func NewLibraryService(repo libraryRepository, students libraryStudentLookup, validate *validator.Validate, logger *zap.Logger) *LibraryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LibraryService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns every book of the tenant.
func (s *LibraryService) List(ctx context.Context, schoolID string) ([]models.LibraryBook, error) {
	return s.repo.List(ctx, schoolID)
}

// Add registers a new book as available.
func (s *LibraryService) Add(ctx context.Context, schoolID string, req BookRequest) (*models.LibraryBook, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid book payload")
	}
	book := &models.LibraryBook{Title: req.Title, Author: req.Author}
	if err := s.repo.Add(ctx, schoolID, book); err != nil {
		return nil, err
	}
	return book, nil
}

// Issue lends the book to a student. An already-issued book is a conflict.
func (s *LibraryService) Issue(ctx context.Context, schoolID, bookID, studentID string) (*models.LibraryBook, error) {
	if _, err := s.students.FindByID(ctx, schoolID, studentID); err != nil {
		return nil, err
	}

	var issued *models.LibraryBook
	err := s.repo.Mutate(ctx, schoolID, bookID, func(book *models.LibraryBook) error {
		if book.Status == models.BookIssued {
			return appErrors.Clone(appErrors.ErrConflict, "book is already issued")
		}
		now := time.Now().UTC()
		book.Status = models.BookIssued
		book.IssuedTo = studentID
		book.IssueDate = &now
		copied := *book
		issued = &copied
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issued, nil
}

// Return puts the book back in circulation.
func (s *LibraryService) Return(ctx context.Context, schoolID, bookID string) (*models.LibraryBook, error) {
	var returned *models.LibraryBook
	err := s.repo.Mutate(ctx, schoolID, bookID, func(book *models.LibraryBook) error {
		if book.Status != models.BookIssued {
			return appErrors.Clone(appErrors.ErrConflict, "book is not issued")
		}
		book.Status = models.BookAvailable
		book.IssuedTo = ""
		book.IssueDate = nil
		copied := *book
		returned = &copied
		return nil
	})
	if err != nil {
		return nil, err
	}
	return returned, nil
}

// Remove deletes a book record.
func (s *LibraryService) Remove(ctx context.Context, schoolID, id string) error {
	return s.repo.Remove(ctx, schoolID, id)
}
