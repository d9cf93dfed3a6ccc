package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

type hostelRepository interface {
	List(ctx context.Context, schoolID string) ([]models.HostelRoom, error)
	Add(ctx context.Context, schoolID string, room *models.HostelRoom) error
	Mutate(ctx context.Context, schoolID, id string, fn func(*models.HostelRoom) error) error
	Remove(ctx context.Context, schoolID, id string) error
}

type hostelStudentLookup interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.Student, error)
}

// RoomRequest holds payload for adding a hostel room.
type RoomRequest struct {
	Number   string `json:"number" validate:"required"`
	Type     string `json:"type" validate:"required"`
	Capacity int    `json:"capacity" validate:"required,gt=0"`
}

// HostelService manages rooms and occupancy. Room status is derived from
// the occupant list and capacity on every read.
type HostelService struct {
	repo      hostelRepository
	students  hostelStudentLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHostelService constructs the hostel service.
func NewHostelService(repo hostelRepository, students hostelStudentLookup, validate *validator.Validate, logger *zap.Logger) *HostelService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HostelService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns every room with its derived status.
func (s *HostelService) List(ctx context.Context, schoolID string) ([]models.HostelRoomView, error) {
	rooms, err := s.repo.List(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	views := make([]models.HostelRoomView, 0, len(rooms))
	for _, room := range rooms {
		views = append(views, models.HostelRoomView{HostelRoom: room, Status: room.Status()})
	}
	return views, nil
}

// Add registers a new empty room.
func (s *HostelService) Add(ctx context.Context, schoolID string, req RoomRequest) (*models.HostelRoomView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room := &models.HostelRoom{Number: req.Number, Type: req.Type, Capacity: req.Capacity}
	if err := s.repo.Add(ctx, schoolID, room); err != nil {
		return nil, err
	}
	return &models.HostelRoomView{HostelRoom: *room, Status: room.Status()}, nil
}

// Assign places a student in the room. Full rooms and duplicate occupants
// are conflicts.
func (s *HostelService) Assign(ctx context.Context, schoolID, roomID, studentID string) (*models.HostelRoomView, error) {
	if _, err := s.students.FindByID(ctx, schoolID, studentID); err != nil {
		return nil, err
	}

	var view *models.HostelRoomView
	err := s.repo.Mutate(ctx, schoolID, roomID, func(room *models.HostelRoom) error {
		if room.Full() {
			return appErrors.Clone(appErrors.ErrConflict, "room is full")
		}
		for _, occupant := range room.Occupants {
			if occupant == studentID {
				return appErrors.Clone(appErrors.ErrConflict, "student already occupies this room")
			}
		}
		room.Occupants = append(room.Occupants, studentID)
		view = &models.HostelRoomView{HostelRoom: *room, Status: room.Status()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Vacate removes a student from the room.
func (s *HostelService) Vacate(ctx context.Context, schoolID, roomID, studentID string) (*models.HostelRoomView, error) {
	var view *models.HostelRoomView
	err := s.repo.Mutate(ctx, schoolID, roomID, func(room *models.HostelRoom) error {
		filtered := room.Occupants[:0]
		found := false
		for _, occupant := range room.Occupants {
			if occupant == studentID {
				found = true
				continue
			}
			filtered = append(filtered, occupant)
		}
		if !found {
			return appErrors.Clone(appErrors.ErrNotFound, "student does not occupy this room")
		}
		room.Occupants = filtered
		view = &models.HostelRoomView{HostelRoom: *room, Status: room.Status()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Remove deletes a room record.
func (s *HostelService) Remove(ctx context.Context, schoolID, id string) error {
	return s.repo.Remove(ctx, schoolID, id)
}
