package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webandapp/institute-api/internal/service"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/response"
)

// TransportHandler exposes vehicle roster endpoints.
type TransportHandler struct {
	transport *service.TransportService
}

// NewTransportHandler constructs TransportHandler.
func NewTransportHandler(transport *service.TransportService) *TransportHandler {
	return &TransportHandler{transport: transport}
}

// List godoc
// @Summary List vehicles
// @Tags Transport
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /transport/vehicles [get]
func (h *TransportHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	vehicles, err := h.transport.List(c.Request.Context(), claims.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vehicles, nil)
}

// Create godoc
// @Summary Add a vehicle
// @Tags Transport
// @Accept json
// @Produce json
// @Param payload body service.VehicleRequest true "Vehicle payload"
// @Success 201 {object} response.Envelope
// @Router /transport/vehicles [post]
func (h *TransportHandler) Create(c *gin.Context) {
	var req service.VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	vehicle, err := h.transport.Create(c.Request.Context(), claims.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, vehicle)
}

// Update godoc
// @Summary Update a vehicle
// @Tags Transport
// @Accept json
// @Produce json
// @Param id path string true "Vehicle ID"
// @Param payload body service.VehicleRequest true "Vehicle payload"
// @Success 200 {object} response.Envelope
// @Router /transport/vehicles/{id} [put]
func (h *TransportHandler) Update(c *gin.Context) {
	var req service.VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	vehicle, err := h.transport.Update(c.Request.Context(), claims.SchoolID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vehicle, nil)
}

// Delete godoc
// @Summary Delete a vehicle
// @Tags Transport
// @Param id path string true "Vehicle ID"
// @Success 204 {object} response.Envelope
// @Router /transport/vehicles/{id} [delete]
func (h *TransportHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.transport.Remove(c.Request.Context(), claims.SchoolID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
