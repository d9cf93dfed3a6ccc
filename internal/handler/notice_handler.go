package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webandapp/institute-api/internal/service"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/response"
)

// NoticeHandler exposes public announcements and vacancy postings.
type NoticeHandler struct {
	notices *service.NoticeService
}

// NewNoticeHandler constructs NoticeHandler.
func NewNoticeHandler(notices *service.NoticeService) *NoticeHandler {
	return &NoticeHandler{notices: notices}
}

// ListNotices godoc
// @Summary List notices
// @Tags Notices
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notices [get]
func (h *NoticeHandler) ListNotices(c *gin.Context) {
	notices, err := h.notices.ListNotices(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notices, nil)
}

// CreateNotice godoc
// @Summary Publish notice
// @Tags Notices
// @Accept json
// @Produce json
// @Param payload body service.NoticeRequest true "Notice payload"
// @Success 201 {object} response.Envelope
// @Router /notices [post]
func (h *NoticeHandler) CreateNotice(c *gin.Context) {
	var req service.NoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	notice, err := h.notices.PublishNotice(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notice)
}

// DeleteNotice godoc
// @Summary Delete notice
// @Tags Notices
// @Param id path string true "Notice ID"
// @Success 204 {object} response.Envelope
// @Router /notices/{id} [delete]
func (h *NoticeHandler) DeleteNotice(c *gin.Context) {
	if err := h.notices.RemoveNotice(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListJobs godoc
// @Summary List vacancy postings
// @Tags Jobs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /jobs [get]
func (h *NoticeHandler) ListJobs(c *gin.Context) {
	jobs, err := h.notices.ListJobs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, nil)
}

// CreateJob godoc
// @Summary Publish vacancy posting
// @Tags Jobs
// @Accept json
// @Produce json
// @Param payload body service.JobPostingRequest true "Posting payload"
// @Success 201 {object} response.Envelope
// @Router /jobs [post]
func (h *NoticeHandler) CreateJob(c *gin.Context) {
	var req service.JobPostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	job, err := h.notices.PublishJob(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, job)
}

// DeleteJob godoc
// @Summary Delete vacancy posting
// @Tags Jobs
// @Param id path string true "Posting ID"
// @Success 204 {object} response.Envelope
// @Router /jobs/{id} [delete]
func (h *NoticeHandler) DeleteJob(c *gin.Context) {
	if err := h.notices.RemoveJob(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
