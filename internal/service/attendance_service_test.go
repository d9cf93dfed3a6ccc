package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

type mockAttendanceRepo struct {
	events []models.AttendanceEvent
}

func (m *mockAttendanceRepo) ListByDay(ctx context.Context, schoolID string, day time.Time) ([]models.AttendanceEvent, error) {
	var out []models.AttendanceEvent
	for _, event := range m.events {
		y1, m1, d1 := event.Timestamp.Date()
		y2, m2, d2 := day.Date()
		if y1 == y2 && m1 == m2 && d1 == d2 {
			out = append(out, event)
		}
	}
	return out, nil
}

func (m *mockAttendanceRepo) Append(ctx context.Context, schoolID string, event *models.AttendanceEvent) error {
	if event.ID == "" {
		event.ID = "generated"
	}
	m.events = append(m.events, *event)
	return nil
}

type mockAttendanceStudents struct {
	students []models.Student
}

func (m *mockAttendanceStudents) List(ctx context.Context, schoolID string) ([]models.Student, error) {
	return m.students, nil
}

func (m *mockAttendanceStudents) FindByID(ctx context.Context, schoolID, id string) (*models.Student, error) {
	for i := range m.students {
		if m.students[i].ID == id {
			cp := m.students[i]
			return &cp, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

func attendanceFixture(t *testing.T) (*AttendanceService, *mockAttendanceRepo) {
	t.Helper()
	repo := &mockAttendanceRepo{}
	students := &mockAttendanceStudents{students: []models.Student{
		{ID: "s1", FullName: "Student One"},
		{ID: "s2", FullName: "Student Two"},
	}}
	service, err := NewAttendanceService(repo, students, zap.NewNop(), "09:00")
	require.NoError(t, err)
	return service, repo
}

func TestNewAttendanceServiceRejectsBadThreshold(t *testing.T) {
	_, err := NewAttendanceService(&mockAttendanceRepo{}, &mockAttendanceStudents{}, zap.NewNop(), "late")
	require.Error(t, err)
	_, err = NewAttendanceService(&mockAttendanceRepo{}, &mockAttendanceStudents{}, zap.NewNop(), "25:00")
	require.Error(t, err)
}

func TestAttendanceServiceRecordRejectsUnknownType(t *testing.T) {
	service, _ := attendanceFixture(t)

	_, err := service.Record(context.Background(), "main", "s1", "lunch-break", time.Time{})
	require.Error(t, err)
}

func TestAttendanceServiceRecordRejectsUnknownStudent(t *testing.T) {
	service, _ := attendanceFixture(t)

	_, err := service.Record(context.Background(), "main", "ghost", models.ClockIn, time.Time{})
	require.Error(t, err)
}

func TestAttendanceServiceDailyStatus(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		clockIn *time.Time
		want    models.AttendanceStatus
	}{
		{name: "early arrival", clockIn: timePtr(day.Add(8*time.Hour + 45*time.Minute)), want: models.AttendancePresent},
		{name: "exactly on threshold", clockIn: timePtr(day.Add(9 * time.Hour)), want: models.AttendancePresent},
		{name: "one minute late", clockIn: timePtr(day.Add(9*time.Hour + time.Minute)), want: models.AttendanceLate},
		{name: "no clock-in", clockIn: nil, want: models.AttendanceAbsent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service, repo := attendanceFixture(t)
			if tc.clockIn != nil {
				repo.events = append(repo.events, models.AttendanceEvent{
					ID: "e1", StudentID: "s1", Timestamp: *tc.clockIn, Type: models.ClockIn,
				})
			}

			status, err := service.DailyStatus(context.Background(), "main", "s1", day)
			require.NoError(t, err)
			assert.Equal(t, tc.want, status.Status)
			assert.Equal(t, "2026-03-10", status.Date)
		})
	}
}

func TestAttendanceServiceFirstClockInDecides(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	service, repo := attendanceFixture(t)

	// A later duplicate clock-in must not demote an on-time arrival.
	repo.events = []models.AttendanceEvent{
		{ID: "e1", StudentID: "s1", Timestamp: day.Add(8*time.Hour + 50*time.Minute), Type: models.ClockIn},
		{ID: "e2", StudentID: "s1", Timestamp: day.Add(11 * time.Hour), Type: models.ClockIn},
		{ID: "e3", StudentID: "s1", Timestamp: day.Add(15 * time.Hour), Type: models.ClockOut},
	}

	status, err := service.DailyStatus(context.Background(), "main", "s1", day)
	require.NoError(t, err)
	assert.Equal(t, models.AttendancePresent, status.Status)
	require.NotNil(t, status.FirstClockIn)
	assert.Equal(t, day.Add(8*time.Hour+50*time.Minute), *status.FirstClockIn)
	require.NotNil(t, status.LastClockOut)
	assert.Equal(t, day.Add(15*time.Hour), *status.LastClockOut)
}

func TestAttendanceServiceDailyRegister(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	service, repo := attendanceFixture(t)

	repo.events = []models.AttendanceEvent{
		{ID: "e1", StudentID: "s1", Timestamp: day.Add(9*time.Hour + 30*time.Minute), Type: models.ClockIn},
	}

	register, err := service.DailyRegister(context.Background(), "main", day)
	require.NoError(t, err)
	require.Len(t, register, 2)

	byStudent := map[string]models.AttendanceStatus{}
	for _, entry := range register {
		byStudent[entry.StudentID] = entry.Status
	}
	assert.Equal(t, models.AttendanceLate, byStudent["s1"])
	assert.Equal(t, models.AttendanceAbsent, byStudent["s2"])
}

func timePtr(t time.Time) *time.Time {
	return &t
}
