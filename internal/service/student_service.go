package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/export"
	"github.com/webandapp/institute-api/pkg/media"
)

type studentRepository interface {
	List(ctx context.Context, schoolID string) ([]models.Student, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.Student, error)
	Add(ctx context.Context, schoolID string, student *models.Student) error
	Update(ctx context.Context, schoolID string, student *models.Student) error
	Mutate(ctx context.Context, schoolID, id string, fn func(*models.Student) error) error
	Remove(ctx context.Context, schoolID, id string) error
}

type scheduleEnsurer interface {
	EnsureSchedule(ctx context.Context, schoolID, studentID string) error
}

// CreateStudentRequest holds payload for admitting students.
type CreateStudentRequest struct {
	FullName    string `json:"full_name" validate:"required"`
	Grade       string `json:"grade" validate:"required"`
	FatherName  string `json:"father_name"`
	MotherName  string `json:"mother_name"`
	DateOfBirth string `json:"date_of_birth" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone"`
	Password    string `json:"password" validate:"required,min=8"`
	Photo       string `json:"photo"`
}

// UpdateStudentRequest holds payload for editing students.
type UpdateStudentRequest struct {
	FullName    string `json:"full_name" validate:"required"`
	Grade       string `json:"grade" validate:"required"`
	FatherName  string `json:"father_name"`
	MotherName  string `json:"mother_name"`
	DateOfBirth string `json:"date_of_birth" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone"`
	Photo       string `json:"photo"`
}

// StudentService handles student admission and lifecycle use-cases.
type StudentService struct {
	repo      studentRepository
	fees      scheduleEnsurer
	photos    *media.Storage
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, fees scheduleEnsurer, photos *media.Storage, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, fees: fees, photos: photos, validator: validate, logger: logger}
}

// List returns every student of the tenant.
func (s *StudentService) List(ctx context.Context, schoolID string) ([]models.Student, error) {
	students, err := s.repo.List(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	return students, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, schoolID, id string) (*models.Student, error) {
	return s.repo.FindByID(ctx, schoolID, id)
}

// Create admits a new student. The roll number is assigned by the
// repository and the fee schedule is synthesized immediately so the ledger
// exists before the first portal visit.
func (s *StudentService) Create(ctx context.Context, schoolID string, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date_of_birth must be YYYY-MM-DD")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	student := &models.Student{
		FullName:     req.FullName,
		Grade:        req.Grade,
		FatherName:   req.FatherName,
		MotherName:   req.MotherName,
		DateOfBirth:  dob,
		Email:        req.Email,
		Phone:        req.Phone,
		Status:       models.StudentEnrolled,
		PasswordHash: string(hash),
	}

	if photoURL, err := s.savePhoto(req.Photo); err != nil {
		return nil, err
	} else if photoURL != "" {
		student.PhotoURL = photoURL
	}

	if err := s.repo.Add(ctx, schoolID, student); err != nil {
		return nil, err
	}

	if s.fees != nil {
		if err := s.fees.EnsureSchedule(ctx, schoolID, student.ID); err != nil {
			s.logger.Warn("fee schedule synthesis failed", zap.String("student_id", student.ID), zap.Error(err))
		}
	}
	return student, nil
}

// Update edits a student record. Roll, status, password and ledger are
// preserved.
func (s *StudentService) Update(ctx context.Context, schoolID, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date_of_birth must be YYYY-MM-DD")
	}

	photoURL, err := s.savePhoto(req.Photo)
	if err != nil {
		return nil, err
	}

	var updated *models.Student
	err = s.repo.Mutate(ctx, schoolID, id, func(student *models.Student) error {
		student.FullName = req.FullName
		student.Grade = req.Grade
		student.FatherName = req.FatherName
		student.MotherName = req.MotherName
		student.DateOfBirth = dob
		student.Email = req.Email
		student.Phone = req.Phone
		if photoURL != "" {
			student.PhotoURL = photoURL
		}
		copied := *student
		updated = &copied
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangeStatus moves a student through the enrollment lifecycle.
func (s *StudentService) ChangeStatus(ctx context.Context, schoolID, id string, status models.StudentStatus) (*models.Student, error) {
	switch status {
	case models.StudentEnrolled, models.StudentWithdrawn, models.StudentGraduated:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown student status")
	}

	var updated *models.Student
	err := s.repo.Mutate(ctx, schoolID, id, func(student *models.Student) error {
		student.Status = status
		copied := *student
		updated = &copied
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove deletes a student record.
func (s *StudentService) Remove(ctx context.Context, schoolID, id string) error {
	return s.repo.Remove(ctx, schoolID, id)
}

// Certificate renders a PDF certificate. Enrolled students receive a
// bonafide certificate, graduated students a graduation certificate, and
// withdrawn students none at all.
func (s *StudentService) Certificate(ctx context.Context, schoolID, id string) ([]byte, string, error) {
	student, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		return nil, "", err
	}

	var kind string
	switch student.Status {
	case models.StudentEnrolled:
		kind = "Bonafide Certificate"
	case models.StudentGraduated:
		kind = "Graduation Certificate"
	default:
		return nil, "", appErrors.Clone(appErrors.ErrPreconditionFailed, "certificates are issued only to enrolled or graduated students")
	}

	payload, err := export.PDFCertificate(export.Certificate{
		Kind:        kind,
		InstituteID: schoolID,
		StudentName: student.FullName,
		FatherName:  student.FatherName,
		Grade:       student.Grade,
		Roll:        student.Roll,
		IssuedOn:    time.Now().UTC(),
	})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}
	return payload, "certificate.pdf", nil
}

func (s *StudentService) savePhoto(photo string) (string, error) {
	if photo == "" || s.photos == nil {
		return "", nil
	}
	if !media.IsDataURI(photo) {
		// Already a URL, keep as-is.
		return photo, nil
	}
	relPath, err := s.photos.SaveDataURI(photo)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid photo payload")
	}
	return relPath, nil
}
