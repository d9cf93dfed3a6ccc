package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webandapp/institute-api/internal/service"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/response"
)

// HostelHandler exposes room and occupancy endpoints.
type HostelHandler struct {
	hostel *service.HostelService
}

// NewHostelHandler constructs HostelHandler.
func NewHostelHandler(hostel *service.HostelService) *HostelHandler {
	return &HostelHandler{hostel: hostel}
}

// List godoc
// @Summary List hostel rooms
// @Tags Hostel
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /hostel/rooms [get]
func (h *HostelHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	rooms, err := h.hostel.List(c.Request.Context(), claims.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// Create godoc
// @Summary Add a room
// @Tags Hostel
// @Accept json
// @Produce json
// @Param payload body service.RoomRequest true "Room payload"
// @Success 201 {object} response.Envelope
// @Router /hostel/rooms [post]
func (h *HostelHandler) Create(c *gin.Context) {
	var req service.RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	room, err := h.hostel.Add(c.Request.Context(), claims.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// Assign godoc
// @Summary Assign a student to a room
// @Tags Hostel
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param payload body object true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /hostel/rooms/{id}/occupants [post]
func (h *HostelHandler) Assign(c *gin.Context) {
	var payload struct {
		StudentID string `json:"student_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "student_id required"))
		return
	}
	claims := claimsFromContext(c)
	room, err := h.hostel.Assign(c.Request.Context(), claims.SchoolID, c.Param("id"), payload.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// Vacate godoc
// @Summary Remove a student from a room
// @Tags Hostel
// @Produce json
// @Param id path string true "Room ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /hostel/rooms/{id}/occupants/{studentId} [delete]
func (h *HostelHandler) Vacate(c *gin.Context) {
	claims := claimsFromContext(c)
	room, err := h.hostel.Vacate(c.Request.Context(), claims.SchoolID, c.Param("id"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// Delete godoc
// @Summary Delete a room
// @Tags Hostel
// @Param id path string true "Room ID"
// @Success 204 {object} response.Envelope
// @Router /hostel/rooms/{id} [delete]
func (h *HostelHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.hostel.Remove(c.Request.Context(), claims.SchoolID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
