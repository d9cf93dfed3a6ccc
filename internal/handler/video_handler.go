package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webandapp/institute-api/internal/service"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/response"
)

// VideoHandler exposes promotional-video generation endpoints.
type VideoHandler struct {
	videos *service.VideoService
}

// NewVideoHandler constructs VideoHandler.
func NewVideoHandler(videos *service.VideoService) *VideoHandler {
	return &VideoHandler{videos: videos}
}

// List godoc
// @Summary List generation requests
// @Tags Videos
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /videos [get]
func (h *VideoHandler) List(c *gin.Context) {
	ads, err := h.videos.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ads, nil)
}

// Get godoc
// @Summary Get one generation request
// @Tags Videos
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /videos/{id} [get]
func (h *VideoHandler) Get(c *gin.Context) {
	ad, err := h.videos.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ad, nil)
}

// Generate godoc
// @Summary Queue a new video generation
// @Tags Videos
// @Accept json
// @Produce json
// @Param payload body object true "Prompt payload"
// @Success 202 {object} response.Envelope
// @Router /videos [post]
func (h *VideoHandler) Generate(c *gin.Context) {
	var payload struct {
		Prompt string `json:"prompt" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "prompt required"))
		return
	}
	ad, err := h.videos.Generate(c.Request.Context(), payload.Prompt)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, ad, nil)
}
