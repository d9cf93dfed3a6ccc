package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/webandapp/institute-api/internal/models"
	"github.com/webandapp/institute-api/internal/service"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/response"
)

// AttendanceHandler exposes clock events and derived registers.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Record godoc
// @Summary Record a clock event
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body object true "Clock event payload"
// @Success 201 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	var payload struct {
		StudentID string                     `json:"student_id" binding:"required"`
		Type      models.AttendanceEventType `json:"type" binding:"required"`
		Timestamp *time.Time                 `json:"timestamp"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	at := time.Time{}
	if payload.Timestamp != nil {
		at = *payload.Timestamp
	}
	claims := claimsFromContext(c)
	event, err := h.attendance.Record(c.Request.Context(), claims.SchoolID, payload.StudentID, payload.Type, at)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Register godoc
// @Summary Daily attendance register
// @Tags Attendance
// @Produce json
// @Param date query string false "Day (YYYY-MM-DD), default today"
// @Success 200 {object} response.Envelope
// @Router /attendance/register [get]
func (h *AttendanceHandler) Register(c *gin.Context) {
	day, err := parseDay(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	register, err := h.attendance.DailyRegister(c.Request.Context(), claims.SchoolID, day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, register, nil)
}

// StudentStatus godoc
// @Summary Daily status for one student
// @Tags Attendance
// @Produce json
// @Param id path string true "Student ID"
// @Param date query string false "Day (YYYY-MM-DD), default today"
// @Success 200 {object} response.Envelope
// @Router /attendance/students/{id} [get]
func (h *AttendanceHandler) StudentStatus(c *gin.Context) {
	day, err := parseDay(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	status, err := h.attendance.DailyStatus(c.Request.Context(), claims.SchoolID, c.Param("id"), day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

func parseDay(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	return day, nil
}
