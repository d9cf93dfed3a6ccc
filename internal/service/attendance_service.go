package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

type attendanceRepository interface {
	ListByDay(ctx context.Context, schoolID string, day time.Time) ([]models.AttendanceEvent, error)
	Append(ctx context.Context, schoolID string, event *models.AttendanceEvent) error
}

type attendanceStudentRepository interface {
	List(ctx context.Context, schoolID string) ([]models.Student, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.Student, error)
}

// AttendanceService records clock events and derives daily statuses. The
// event log is the only persisted state; Present, Late and Absent are always
// recomputed from it.
type AttendanceService struct {
	events    attendanceRepository
	students  attendanceStudentRepository
	logger    *zap.Logger
	lateAfter lateThreshold
}

type lateThreshold struct {
	hour   int
	minute int
}

// NewAttendanceService constructs an AttendanceService. lateAfter is an
// "HH:MM" wall-clock threshold; a clock-in at exactly that time still counts
// as present.
func NewAttendanceService(events attendanceRepository, students attendanceStudentRepository, logger *zap.Logger, lateAfter string) (*AttendanceService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var h, m int
	if _, err := fmt.Sscanf(lateAfter, "%d:%d", &h, &m); err != nil {
		return nil, fmt.Errorf("invalid late-after threshold %q: %w", lateAfter, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return nil, fmt.Errorf("late-after threshold %q out of range", lateAfter)
	}
	return &AttendanceService{events: events, students: students, logger: logger, lateAfter: lateThreshold{hour: h, minute: m}}, nil
}

// Record appends a clock event for the student.
func (s *AttendanceService) Record(ctx context.Context, schoolID, studentID string, eventType models.AttendanceEventType, at time.Time) (*models.AttendanceEvent, error) {
	if eventType != models.ClockIn && eventType != models.ClockOut {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event type must be clock-in or clock-out")
	}
	if _, err := s.students.FindByID(ctx, schoolID, studentID); err != nil {
		return nil, err
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	event := &models.AttendanceEvent{
		StudentID: studentID,
		Timestamp: at,
		Type:      eventType,
	}
	if err := s.events.Append(ctx, schoolID, event); err != nil {
		return nil, err
	}
	return event, nil
}

// DailyStatus derives the status of one student for the given day.
func (s *AttendanceService) DailyStatus(ctx context.Context, schoolID, studentID string, day time.Time) (*models.DailyAttendance, error) {
	if _, err := s.students.FindByID(ctx, schoolID, studentID); err != nil {
		return nil, err
	}
	events, err := s.events.ListByDay(ctx, schoolID, day)
	if err != nil {
		return nil, err
	}
	status := s.classify(studentID, day, events)
	return &status, nil
}

// DailyRegister derives statuses for every student on the given day.
func (s *AttendanceService) DailyRegister(ctx context.Context, schoolID string, day time.Time) ([]models.DailyAttendance, error) {
	students, err := s.students.List(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListByDay(ctx, schoolID, day)
	if err != nil {
		return nil, err
	}

	register := make([]models.DailyAttendance, 0, len(students))
	for _, student := range students {
		register = append(register, s.classify(student.ID, day, events))
	}
	return register, nil
}

// classify folds a day's events into one status. The first clock-in decides
// Present versus Late; no clock-in at all means Absent.
func (s *AttendanceService) classify(studentID string, day time.Time, events []models.AttendanceEvent) models.DailyAttendance {
	result := models.DailyAttendance{
		StudentID: studentID,
		Date:      day.Format("2006-01-02"),
		Status:    models.AttendanceAbsent,
	}

	for _, event := range events {
		if event.StudentID != studentID {
			continue
		}
		ts := event.Timestamp.In(day.Location())
		switch event.Type {
		case models.ClockIn:
			if result.FirstClockIn == nil || ts.Before(*result.FirstClockIn) {
				copied := ts
				result.FirstClockIn = &copied
			}
		case models.ClockOut:
			if result.LastClockOut == nil || ts.After(*result.LastClockOut) {
				copied := ts
				result.LastClockOut = &copied
			}
		}
	}

	if result.FirstClockIn == nil {
		return result
	}

	threshold := time.Date(day.Year(), day.Month(), day.Day(), s.lateAfter.hour, s.lateAfter.minute, 0, 0, day.Location())
	if result.FirstClockIn.After(threshold) {
		result.Status = models.AttendanceLate
	} else {
		result.Status = models.AttendancePresent
	}
	return result
}
