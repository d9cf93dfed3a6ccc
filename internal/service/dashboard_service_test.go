package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

type staticStudentLister struct {
	students []models.Student
	err      error
}

func (l *staticStudentLister) List(ctx context.Context, schoolID string) ([]models.Student, error) {
	return l.students, l.err
}

type staticTeacherLister struct{ teachers []models.Teacher }

func (l *staticTeacherLister) List(ctx context.Context, schoolID string) ([]models.Teacher, error) {
	return l.teachers, nil
}

type staticClassLister struct{ classes []models.Class }

func (l *staticClassLister) List(ctx context.Context, schoolID string) ([]models.Class, error) {
	return l.classes, nil
}

type staticBookLister struct{ books []models.LibraryBook }

func (l *staticBookLister) List(ctx context.Context, schoolID string) ([]models.LibraryBook, error) {
	return l.books, nil
}

type staticRoomLister struct{ rooms []models.HostelRoom }

func (l *staticRoomLister) List(ctx context.Context, schoolID string) ([]models.HostelRoom, error) {
	return l.rooms, nil
}

type staticVehicleLister struct{ vehicles []models.TransportVehicle }

func (l *staticVehicleLister) List(ctx context.Context, schoolID string) ([]models.TransportVehicle, error) {
	return l.vehicles, nil
}

type staticNoticeLister struct{ notices []models.Notice }

func (l *staticNoticeLister) List(ctx context.Context) ([]models.Notice, error) {
	return l.notices, nil
}

type staticRegister struct {
	register []models.DailyAttendance
	err      error
}

func (r *staticRegister) DailyRegister(ctx context.Context, schoolID string, day time.Time) ([]models.DailyAttendance, error) {
	return r.register, r.err
}

type memCacheRepo struct {
	entries map[string][]byte
	sets    int
}

func newMemCacheRepo() *memCacheRepo {
	return &memCacheRepo{entries: map[string][]byte{}}
}

func (r *memCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := r.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *memCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.entries[key] = raw
	r.sets++
	return nil
}

func (r *memCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	return nil
}

func dashboardFixture(cache *CacheService) (*DashboardService, *staticRegister) {
	paid := &models.Student{ID: "s1", Fees: &models.Fees{TotalFees: 45000, FeesPaid: 45000}}
	partial := &models.Student{ID: "s2", Fees: &models.Fees{TotalFees: 45000, FeesPaid: 15000}}
	unbilled := &models.Student{ID: "s3"}

	register := &staticRegister{register: []models.DailyAttendance{
		{StudentID: "s1", Status: models.AttendancePresent},
		{StudentID: "s2", Status: models.AttendanceLate},
		{StudentID: "s3", Status: models.AttendanceAbsent},
	}}

	svc := NewDashboardService(DashboardServiceParams{
		Students: &staticStudentLister{students: []models.Student{*paid, *partial, *unbilled}},
		Teachers: &staticTeacherLister{teachers: make([]models.Teacher, 4)},
		Classes:  &staticClassLister{classes: make([]models.Class, 2)},
		Books:    &staticBookLister{books: make([]models.LibraryBook, 10)},
		Rooms: &staticRoomLister{rooms: []models.HostelRoom{
			{ID: "r1", Capacity: 2, Occupants: []string{"s1", "s2"}},
			{ID: "r2", Capacity: 3, Occupants: []string{"s3"}},
		}},
		Vehicles:   &staticVehicleLister{vehicles: make([]models.TransportVehicle, 1)},
		Notices:    &staticNoticeLister{notices: make([]models.Notice, 5)},
		Attendance: register,
		Cache:      cache,
	})
	return svc, register
}

func TestDashboardSummaryComposesSections(t *testing.T) {
	svc, _ := dashboardFixture(nil)

	summary, cached, err := svc.Summary(context.Background(), "main")
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, "main", summary.SchoolID)

	require.Equal(t, 3, summary.Counts.Students)
	require.Equal(t, 4, summary.Counts.Teachers)
	require.Equal(t, 2, summary.Counts.Classes)
	require.Equal(t, 10, summary.Counts.Books)
	require.Equal(t, 2, summary.Counts.Rooms)
	require.Equal(t, 1, summary.Counts.Vehicles)
	require.Equal(t, 5, summary.Counts.Notices)

	require.Equal(t, int64(90000), summary.Fees.TotalBilled)
	require.Equal(t, int64(60000), summary.Fees.TotalCollected)
	require.Equal(t, int64(30000), summary.Fees.Outstanding)
	require.InDelta(t, 0.6667, summary.Fees.CollectionRate, 0.001)

	require.Equal(t, 1, summary.Attendance.Present)
	require.Equal(t, 1, summary.Attendance.Late)
	require.Equal(t, 1, summary.Attendance.Absent)

	require.Equal(t, 2, summary.Hostel.Rooms)
	require.Equal(t, 5, summary.Hostel.Capacity)
	require.Equal(t, 3, summary.Hostel.Occupants)
	require.Equal(t, 1, summary.Hostel.FullRooms)
}

func TestDashboardSummaryAttendanceFailureIsNonFatal(t *testing.T) {
	svc, register := dashboardFixture(nil)
	register.err = errors.New("store unavailable")

	summary, _, err := svc.Summary(context.Background(), "main")
	require.NoError(t, err)
	require.Zero(t, summary.Attendance.Present)
	require.Empty(t, summary.Attendance.Date)
	require.Equal(t, 3, summary.Counts.Students)
}

func TestDashboardSummaryListFailurePropagates(t *testing.T) {
	svc, _ := dashboardFixture(nil)
	svc.params.Students = &staticStudentLister{err: errors.New("store unavailable")}

	_, _, err := svc.Summary(context.Background(), "main")
	require.Error(t, err)
}

func TestDashboardSummaryUsesCache(t *testing.T) {
	repo := newMemCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	svc, _ := dashboardFixture(cache)

	first, cached, err := svc.Summary(context.Background(), "main")
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, 1, repo.sets)

	second, cached, err := svc.Summary(context.Background(), "main")
	require.NoError(t, err)
	require.True(t, cached)
	require.Equal(t, first.Counts, second.Counts)
	require.Equal(t, first.Fees, second.Fees)
	require.Equal(t, 1, repo.sets)
}
