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

const libraryCollection = "libraryBooks"

// LibraryRepository is the CRUD façade over the library catalogue.
type LibraryRepository struct {
	store *store.Store
}

// NewLibraryRepository constructs a LibraryRepository.
func NewLibraryRepository(s *store.Store) *LibraryRepository {
	return &LibraryRepository{store: s}
}

// List returns every book in the tenant catalogue.
func (r *LibraryRepository) List(ctx context.Context, schoolID string) ([]models.LibraryBook, error) {
	var books []models.LibraryBook
	if err := r.store.Read(ctx, libraryCollection, schoolID, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// Add registers a new book, defaulting its status to Available.
func (r *LibraryRepository) Add(ctx context.Context, schoolID string, book *models.LibraryBook) error {
	return r.mutate(ctx, schoolID, func(books []models.LibraryBook) ([]models.LibraryBook, error) {
		if book.ID == "" {
			book.ID = uuid.NewString()
		}
		if book.Status == "" {
			book.Status = models.BookAvailable
		}
		now := time.Now().UTC()
		book.CreatedAt = now
		book.UpdatedAt = now
		return append(books, *book), nil
	})
}

// Mutate applies an in-place change to one book under the CAS loop.
func (r *LibraryRepository) Mutate(ctx context.Context, schoolID, id string, fn func(*models.LibraryBook) error) error {
	return r.mutate(ctx, schoolID, func(books []models.LibraryBook) ([]models.LibraryBook, error) {
		for i := range books {
			if books[i].ID == id {
				if err := fn(&books[i]); err != nil {
					return nil, err
				}
				books[i].UpdatedAt = time.Now().UTC()
				return books, nil
			}
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "book not found")
	})
}

// Remove deletes the book with the given id.
func (r *LibraryRepository) Remove(ctx context.Context, schoolID, id string) error {
	return r.mutate(ctx, schoolID, func(books []models.LibraryBook) ([]models.LibraryBook, error) {
		filtered := books[:0]
		found := false
		for _, book := range books {
			if book.ID == id {
				found = true
				continue
			}
			filtered = append(filtered, book)
		}
		if !found {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "book not found")
		}
		return filtered, nil
	})
}

func (r *LibraryRepository) mutate(ctx context.Context, schoolID string, fn func([]models.LibraryBook) ([]models.LibraryBook, error)) error {
	return r.store.Update(ctx, libraryCollection, schoolID, func(raw json.RawMessage) (json.RawMessage, error) {
		var books []models.LibraryBook
		if err := store.DecodeList(raw, &books); err != nil {
			return nil, err
		}
		next, err := fn(books)
		if err != nil {
			return nil, err
		}
		return json.Marshal(next)
	})
}
