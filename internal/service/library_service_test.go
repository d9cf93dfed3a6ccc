package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

type mockLibraryRepo struct {
	items map[string]*models.LibraryBook
}

func (m *mockLibraryRepo) List(ctx context.Context, schoolID string) ([]models.LibraryBook, error) {
	out := make([]models.LibraryBook, 0, len(m.items))
	for _, book := range m.items {
		out = append(out, *book)
	}
	return out, nil
}

func (m *mockLibraryRepo) Add(ctx context.Context, schoolID string, book *models.LibraryBook) error {
	if m.items == nil {
		m.items = make(map[string]*models.LibraryBook)
	}
	book.ID = "generated"
	if book.Status == "" {
		book.Status = models.BookAvailable
	}
	cp := *book
	m.items[book.ID] = &cp
	return nil
}

func (m *mockLibraryRepo) Mutate(ctx context.Context, schoolID, id string, fn func(*models.LibraryBook) error) error {
	book, ok := m.items[id]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "book not found")
	}
	return fn(book)
}

func (m *mockLibraryRepo) Remove(ctx context.Context, schoolID, id string) error {
	delete(m.items, id)
	return nil
}

type mockStudentLookup struct {
	known map[string]bool
}

func (m *mockStudentLookup) FindByID(ctx context.Context, schoolID, id string) (*models.Student, error) {
	if m.known[id] {
		return &models.Student{ID: id}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

func libraryFixture() (*LibraryService, *mockLibraryRepo) {
	repo := &mockLibraryRepo{items: map[string]*models.LibraryBook{
		"b1": {ID: "b1", Title: "Go In Practice", Author: "Anon", Status: models.BookAvailable},
	}}
	students := &mockStudentLookup{known: map[string]bool{"s1": true}}
	return NewLibraryService(repo, students, validator.New(), zap.NewNop()), repo
}

func TestLibraryServiceAddValidation(t *testing.T) {
	service, _ := libraryFixture()

	_, err := service.Add(context.Background(), "main", BookRequest{Title: "No Author"})
	require.Error(t, err)

	book, err := service.Add(context.Background(), "main", BookRequest{Title: "T", Author: "A"})
	require.NoError(t, err)
	assert.Equal(t, models.BookAvailable, book.Status)
}

func TestLibraryServiceIssue(t *testing.T) {
	service, repo := libraryFixture()

	book, err := service.Issue(context.Background(), "main", "b1", "s1")
	require.NoError(t, err)
	assert.Equal(t, models.BookIssued, book.Status)
	assert.Equal(t, "s1", book.IssuedTo)
	require.NotNil(t, book.IssueDate)
	assert.Equal(t, models.BookIssued, repo.items["b1"].Status)
}

func TestLibraryServiceIssueConflicts(t *testing.T) {
	service, _ := libraryFixture()

	_, err := service.Issue(context.Background(), "main", "b1", "s1")
	require.NoError(t, err)

	_, err = service.Issue(context.Background(), "main", "b1", "s1")
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrConflict.Code, typed.Code)
}

func TestLibraryServiceIssueUnknownStudent(t *testing.T) {
	service, repo := libraryFixture()

	_, err := service.Issue(context.Background(), "main", "b1", "ghost")
	require.Error(t, err)
	assert.Equal(t, models.BookAvailable, repo.items["b1"].Status)
}

func TestLibraryServiceReturn(t *testing.T) {
	service, repo := libraryFixture()

	_, err := service.Issue(context.Background(), "main", "b1", "s1")
	require.NoError(t, err)

	book, err := service.Return(context.Background(), "main", "b1")
	require.NoError(t, err)
	assert.Equal(t, models.BookAvailable, book.Status)
	assert.Empty(t, book.IssuedTo)
	assert.Nil(t, book.IssueDate)
	assert.Equal(t, models.BookAvailable, repo.items["b1"].Status)
}

func TestLibraryServiceReturnNotIssued(t *testing.T) {
	service, _ := libraryFixture()

	_, err := service.Return(context.Background(), "main", "b1")
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrConflict.Code, typed.Code)
}
