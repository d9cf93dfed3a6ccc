package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

type mockStudentRepo struct {
	items   map[string]*models.Student
	nextID  int
	removed []string
}

func (m *mockStudentRepo) List(ctx context.Context, schoolID string) ([]models.Student, error) {
	out := make([]models.Student, 0, len(m.items))
	for _, student := range m.items {
		out = append(out, *student)
	}
	return out, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, schoolID, id string) (*models.Student, error) {
	if student, ok := m.items[id]; ok {
		cp := *student
		return &cp, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

func (m *mockStudentRepo) Add(ctx context.Context, schoolID string, student *models.Student) error {
	if m.items == nil {
		m.items = make(map[string]*models.Student)
	}
	m.nextID++
	student.ID = fmt.Sprintf("s%d", m.nextID)
	student.Roll = maxRoll(m.items) + 1
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	cp := *student
	m.items[student.ID] = &cp
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, schoolID string, student *models.Student) error {
	cp := *student
	m.items[student.ID] = &cp
	return nil
}

func (m *mockStudentRepo) Mutate(ctx context.Context, schoolID, id string, fn func(*models.Student) error) error {
	student, ok := m.items[id]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return fn(student)
}

func (m *mockStudentRepo) Remove(ctx context.Context, schoolID, id string) error {
	if _, ok := m.items[id]; !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	delete(m.items, id)
	m.removed = append(m.removed, id)
	return nil
}

func maxRoll(items map[string]*models.Student) int {
	max := 0
	for _, student := range items {
		if student.Roll > max {
			max = student.Roll
		}
	}
	return max
}

type mockScheduleEnsurer struct {
	ensured []string
	err     error
}

func (m *mockScheduleEnsurer) EnsureSchedule(ctx context.Context, schoolID, studentID string) error {
	m.ensured = append(m.ensured, studentID)
	return m.err
}

func validCreateStudentRequest() CreateStudentRequest {
	return CreateStudentRequest{
		FullName:    "Student One",
		Grade:       "9",
		FatherName:  "Father One",
		DateOfBirth: "2011-04-02",
		Email:       "s1@example.com",
		Password:    "secretpass",
	}
}

func TestStudentServiceCreate(t *testing.T) {
	repo := &mockStudentRepo{}
	fees := &mockScheduleEnsurer{}
	service := NewStudentService(repo, fees, nil, validator.New(), zap.NewNop())

	student, err := service.Create(context.Background(), "main", validCreateStudentRequest())
	require.NoError(t, err)

	assert.Equal(t, models.StudentEnrolled, student.Status)
	assert.Equal(t, 1, student.Roll)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte("secretpass")))
	assert.Equal(t, []string{student.ID}, fees.ensured)
}

func TestStudentServiceCreateAssignsNextRoll(t *testing.T) {
	repo := &mockStudentRepo{items: map[string]*models.Student{
		"s9": {ID: "s9", Roll: 41},
	}}
	service := NewStudentService(repo, &mockScheduleEnsurer{}, nil, validator.New(), zap.NewNop())

	student, err := service.Create(context.Background(), "main", validCreateStudentRequest())
	require.NoError(t, err)
	assert.Equal(t, 42, student.Roll)
}

func TestStudentServiceCreateValidation(t *testing.T) {
	service := NewStudentService(&mockStudentRepo{}, nil, nil, validator.New(), zap.NewNop())

	req := validCreateStudentRequest()
	req.Password = "short"
	_, err := service.Create(context.Background(), "main", req)
	require.Error(t, err)

	req = validCreateStudentRequest()
	req.DateOfBirth = "02-04-2011"
	_, err = service.Create(context.Background(), "main", req)
	require.Error(t, err)
}

func TestStudentServiceCreateSurvivesScheduleFailure(t *testing.T) {
	repo := &mockStudentRepo{}
	fees := &mockScheduleEnsurer{err: appErrors.ErrInternal}
	service := NewStudentService(repo, fees, nil, validator.New(), zap.NewNop())

	student, err := service.Create(context.Background(), "main", validCreateStudentRequest())
	require.NoError(t, err)
	assert.Len(t, repo.items, 1)
	assert.NotEmpty(t, student.ID)
}

func TestStudentServiceUpdatePreservesLifecycleFields(t *testing.T) {
	repo := &mockStudentRepo{items: map[string]*models.Student{
		"s1": {
			ID: "s1", Roll: 7, FullName: "Old Name", Grade: "8",
			Status: models.StudentEnrolled, PasswordHash: "hash",
			Fees: &models.Fees{TotalFees: 45000},
		},
	}}
	service := NewStudentService(repo, nil, nil, validator.New(), zap.NewNop())

	updated, err := service.Update(context.Background(), "main", "s1", UpdateStudentRequest{
		FullName:    "New Name",
		Grade:       "9",
		DateOfBirth: "2011-04-02",
		Email:       "s1@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "New Name", updated.FullName)
	assert.Equal(t, 7, updated.Roll)
	assert.Equal(t, models.StudentEnrolled, updated.Status)
	assert.Equal(t, "hash", updated.PasswordHash)
	require.NotNil(t, updated.Fees)
	assert.Equal(t, int64(45000), updated.Fees.TotalFees)
}

func TestStudentServiceChangeStatus(t *testing.T) {
	repo := &mockStudentRepo{items: map[string]*models.Student{
		"s1": {ID: "s1", Status: models.StudentEnrolled},
	}}
	service := NewStudentService(repo, nil, nil, validator.New(), zap.NewNop())

	updated, err := service.ChangeStatus(context.Background(), "main", "s1", models.StudentGraduated)
	require.NoError(t, err)
	assert.Equal(t, models.StudentGraduated, updated.Status)

	_, err = service.ChangeStatus(context.Background(), "main", "s1", "Expelled")
	require.Error(t, err)
}

func TestStudentServiceCertificate(t *testing.T) {
	repo := &mockStudentRepo{items: map[string]*models.Student{
		"s1": {ID: "s1", Roll: 7, FullName: "Student One", Grade: "9", Status: models.StudentEnrolled},
		"s2": {ID: "s2", Roll: 8, FullName: "Student Two", Grade: "12", Status: models.StudentWithdrawn},
	}}
	service := NewStudentService(repo, nil, nil, validator.New(), zap.NewNop())

	payload, filename, err := service.Certificate(context.Background(), "main", "s1")
	require.NoError(t, err)
	assert.Equal(t, "certificate.pdf", filename)
	assert.NotEmpty(t, payload)

	_, _, err = service.Certificate(context.Background(), "main", "s2")
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, typed.Code)
}
