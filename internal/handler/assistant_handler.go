package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webandapp/institute-api/internal/service"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/response"
)

// AssistantHandler exposes the generative assistant endpoints.
type AssistantHandler struct {
	assistant *service.AssistantService
}

// NewAssistantHandler constructs AssistantHandler.
func NewAssistantHandler(assistant *service.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

// Ask godoc
// @Summary Ask the assistant a question
// @Tags Assistant
// @Accept json
// @Produce json
// @Param payload body object true "Question payload"
// @Success 200 {object} response.Envelope
// @Router /assistant/ask [post]
func (h *AssistantHandler) Ask(c *gin.Context) {
	var payload struct {
		Question string `json:"question" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "question required"))
		return
	}
	answer, err := h.assistant.Ask(c.Request.Context(), payload.Question)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"answer": answer}, nil)
}

// RemoveBackground godoc
// @Summary Remove the background from an uploaded photo
// @Tags Assistant
// @Accept multipart/form-data
// @Produce image/png
// @Param photo formData file true "Photo to process"
// @Success 200 {file} binary
// @Router /assistant/remove-background [post]
func (h *AssistantHandler) RemoveBackground(c *gin.Context) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "photo file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read photo"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read photo"))
		return
	}

	result, mimeType, err := h.assistant.RemoveBackground(c.Request.Context(), data, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, mimeType, result)
}
