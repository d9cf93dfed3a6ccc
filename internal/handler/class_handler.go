package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webandapp/institute-api/internal/service"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/response"
)

// ClassHandler exposes class endpoints.
type ClassHandler struct {
	classes *service.ClassService
}

// NewClassHandler constructs ClassHandler.
func NewClassHandler(classes *service.ClassService) *ClassHandler {
	return &ClassHandler{classes: classes}
}

// List godoc
// @Summary List classes
// @Tags Classes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	classes, err := h.classes.List(c.Request.Context(), claims.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// Create godoc
// @Summary Add class
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.ClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req service.ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	class, err := h.classes.Create(c.Request.Context(), claims.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Update godoc
// @Summary Update class
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.ClassRequest true "Class payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [put]
func (h *ClassHandler) Update(c *gin.Context) {
	var req service.ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	class, err := h.classes.Update(c.Request.Context(), claims.SchoolID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Delete godoc
// @Summary Delete class
// @Tags Classes
// @Param id path string true "Class ID"
// @Success 204 {object} response.Envelope
// @Router /classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.classes.Remove(c.Request.Context(), claims.SchoolID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
