package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/webandapp/institute-api/internal/models"
	"github.com/webandapp/institute-api/internal/store"
)

const attendanceCollection = "attendance"

// AttendanceRepository appends to and reads the attendance event log. The
// log is append-only; daily statuses are derived by the service layer and
// never written back.
type AttendanceRepository struct {
	store *store.Store
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(s *store.Store) *AttendanceRepository {
	return &AttendanceRepository{store: s}
}

// List returns the full event log for the tenant.
func (r *AttendanceRepository) List(ctx context.Context, schoolID string) ([]models.AttendanceEvent, error) {
	var events []models.AttendanceEvent
	if err := r.store.Read(ctx, attendanceCollection, schoolID, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ListByDay returns events whose timestamp falls on the given calendar day
// in the provided location.
func (r *AttendanceRepository) ListByDay(ctx context.Context, schoolID string, day time.Time) ([]models.AttendanceEvent, error) {
	events, err := r.List(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)
	filtered := make([]models.AttendanceEvent, 0)
	for _, event := range events {
		ts := event.Timestamp.In(day.Location())
		if !ts.Before(dayStart) && ts.Before(dayEnd) {
			filtered = append(filtered, event)
		}
	}
	return filtered, nil
}

// Append adds an event to the log.
func (r *AttendanceRepository) Append(ctx context.Context, schoolID string, event *models.AttendanceEvent) error {
	return r.store.Update(ctx, attendanceCollection, schoolID, func(raw json.RawMessage) (json.RawMessage, error) {
		var events []models.AttendanceEvent
		if err := store.DecodeList(raw, &events); err != nil {
			return nil, err
		}
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now().UTC()
		}
		return json.Marshal(append(events, *event))
	})
}
