package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webandapp/institute-api/internal/service"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/response"
)

// ContactHandler exposes the public contact form and the admin inbox.
type ContactHandler struct {
	contact   *service.ContactService
	recaptcha *service.RecaptchaService
}

// NewContactHandler constructs ContactHandler.
func NewContactHandler(contact *service.ContactService, recaptcha *service.RecaptchaService) *ContactHandler {
	return &ContactHandler{contact: contact, recaptcha: recaptcha}
}

// Submit godoc
// @Summary Submit a contact message
// @Tags Contact
// @Accept json
// @Produce json
// @Param payload body object true "Contact payload with captcha token"
// @Success 201 {object} response.Envelope
// @Router /contact [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	var payload struct {
		service.ContactRequest
		CaptchaToken   string `json:"captcha_token"`
		CaptchaAction  string `json:"captcha_action"`
		CaptchaSiteKey string `json:"captcha_site_key"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	// Authenticated users skip the captcha; it gates anonymous submissions.
	if h.recaptcha != nil && claimsFromContext(c) == nil {
		input := service.AssessmentInput{
			Token:   payload.CaptchaToken,
			Action:  payload.CaptchaAction,
			SiteKey: payload.CaptchaSiteKey,
		}
		if err := h.recaptcha.Verify(c.Request.Context(), input); err != nil {
			response.Error(c, err)
			return
		}
	}

	message, err := h.contact.Submit(c.Request.Context(), payload.ContactRequest)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, message)
}

// VerifyCaptcha godoc
// @Summary Verify a captcha token
// @Tags Contact
// @Accept json
// @Produce json
// @Param payload body object true "Token payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /recaptcha [post]
func (h *ContactHandler) VerifyCaptcha(c *gin.Context) {
	var payload struct {
		Token   string `json:"token" binding:"required"`
		Action  string `json:"action"`
		SiteKey string `json:"siteKey"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "token required"))
		return
	}

	input := service.AssessmentInput{Token: payload.Token, Action: payload.Action, SiteKey: payload.SiteKey}
	passed, score, err := h.recaptcha.Assess(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"success": passed, "score": score}, nil)
}

// List godoc
// @Summary List contact messages
// @Tags Contact
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /contact [get]
func (h *ContactHandler) List(c *gin.Context) {
	messages, err := h.contact.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}

// DraftReply godoc
// @Summary Draft a reply with the assistant
// @Tags Contact
// @Produce json
// @Param id path string true "Message ID"
// @Success 200 {object} response.Envelope
// @Router /contact/{id}/draft [post]
func (h *ContactHandler) DraftReply(c *gin.Context) {
	draft, err := h.contact.DraftReply(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"draft": draft}, nil)
}

// Reply godoc
// @Summary Reply to a contact message
// @Tags Contact
// @Accept json
// @Produce json
// @Param id path string true "Message ID"
// @Param payload body object true "Reply payload"
// @Success 200 {object} response.Envelope
// @Router /contact/{id}/reply [post]
func (h *ContactHandler) Reply(c *gin.Context) {
	var payload struct {
		Reply string `json:"reply" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "reply required"))
		return
	}
	message, err := h.contact.Reply(c.Request.Context(), c.Param("id"), payload.Reply)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, message, nil)
}
