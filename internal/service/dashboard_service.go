package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/webandapp/institute-api/internal/dto"
	"github.com/webandapp/institute-api/internal/models"
)

type dashboardStudentLister interface {
	List(ctx context.Context, schoolID string) ([]models.Student, error)
}

type dashboardTeacherLister interface {
	List(ctx context.Context, schoolID string) ([]models.Teacher, error)
}

type dashboardClassLister interface {
	List(ctx context.Context, schoolID string) ([]models.Class, error)
}

type dashboardBookLister interface {
	List(ctx context.Context, schoolID string) ([]models.LibraryBook, error)
}

type dashboardRoomLister interface {
	List(ctx context.Context, schoolID string) ([]models.HostelRoom, error)
}

type dashboardVehicleLister interface {
	List(ctx context.Context, schoolID string) ([]models.TransportVehicle, error)
}

type dashboardNoticeLister interface {
	List(ctx context.Context) ([]models.Notice, error)
}

type dashboardRegister interface {
	DailyRegister(ctx context.Context, schoolID string, day time.Time) ([]models.DailyAttendance, error)
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Students   dashboardStudentLister
	Teachers   dashboardTeacherLister
	Classes    dashboardClassLister
	Books      dashboardBookLister
	Rooms      dashboardRoomLister
	Vehicles   dashboardVehicleLister
	Notices    dashboardNoticeLister
	Attendance dashboardRegister
	Cache      *CacheService
	Logger     *zap.Logger
	CacheTTL   time.Duration
}

// DashboardService composes the admin dashboard from the live collections.
// Every figure is derived on demand; the cache only shortens the window
// between recomputations.
type DashboardService struct {
	params   DashboardServiceParams
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{params: params, cacheTTL: ttl, logger: logger, now: time.Now}
}

// Summary returns the dashboard payload and whether it came from cache.
func (s *DashboardService) Summary(ctx context.Context, schoolID string) (*dto.DashboardResponse, bool, error) {
	cacheKey := fmt.Sprintf("dash:%s:%s", schoolID, s.now().UTC().Format("2006-01-02"))
	if s.params.Cache != nil {
		var cached dto.DashboardResponse
		hit, err := s.params.Cache.Get(ctx, cacheKey, &cached)
		if err == nil && hit {
			return &cached, true, nil
		}
	}

	summary, err := s.compose(ctx, schoolID)
	if err != nil {
		return nil, false, err
	}

	if s.params.Cache != nil {
		if err := s.params.Cache.Set(ctx, cacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return summary, false, nil
}

func (s *DashboardService) compose(ctx context.Context, schoolID string) (*dto.DashboardResponse, error) {
	students, err := s.params.Students.List(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	teachers, err := s.params.Teachers.List(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	classes, err := s.params.Classes.List(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	books, err := s.params.Books.List(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	rooms, err := s.params.Rooms.List(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	vehicles, err := s.params.Vehicles.List(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	notices, err := s.params.Notices.List(ctx)
	if err != nil {
		return nil, err
	}

	summary := &dto.DashboardResponse{
		SchoolID: schoolID,
		Counts: dto.DashboardCounts{
			Students: len(students),
			Teachers: len(teachers),
			Classes:  len(classes),
			Books:    len(books),
			Rooms:    len(rooms),
			Vehicles: len(vehicles),
			Notices:  len(notices),
		},
		Fees:   buildFees(students),
		Hostel: buildHostel(rooms),
	}

	if s.params.Attendance != nil {
		today := s.now().UTC()
		register, err := s.params.Attendance.DailyRegister(ctx, schoolID, today)
		if err != nil {
			s.logger.Warn("dashboard attendance fetch failed", zap.Error(err))
		} else {
			summary.Attendance = buildAttendance(today, register)
		}
	}
	return summary, nil
}

func buildFees(students []models.Student) dto.DashboardFees {
	section := dto.DashboardFees{}
	for _, student := range students {
		if student.Fees == nil {
			continue
		}
		section.TotalBilled += student.Fees.TotalFees
		section.TotalCollected += student.Fees.FeesPaid
	}
	section.Outstanding = section.TotalBilled - section.TotalCollected
	if section.TotalBilled > 0 {
		section.CollectionRate = float64(section.TotalCollected) / float64(section.TotalBilled)
	}
	return section
}

func buildAttendance(day time.Time, register []models.DailyAttendance) dto.DashboardAttendance {
	section := dto.DashboardAttendance{Date: day.Format("2006-01-02")}
	for _, entry := range register {
		switch entry.Status {
		case models.AttendancePresent:
			section.Present++
		case models.AttendanceLate:
			section.Late++
		case models.AttendanceAbsent:
			section.Absent++
		}
	}
	return section
}

func buildHostel(rooms []models.HostelRoom) dto.DashboardHostel {
	section := dto.DashboardHostel{Rooms: len(rooms)}
	for _, room := range rooms {
		section.Capacity += room.Capacity
		section.Occupants += len(room.Occupants)
		if room.Full() {
			section.FullRooms++
		}
	}
	return section
}
