package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webandapp/institute-api/internal/service"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/response"
)

// FeeHandler exposes the per-student fee ledger.
type FeeHandler struct {
	fees *service.FeeService
}

// NewFeeHandler constructs FeeHandler.
func NewFeeHandler(fees *service.FeeService) *FeeHandler {
	return &FeeHandler{fees: fees}
}

// Summary godoc
// @Summary Fee summary for a student
// @Tags Fees
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/fees [get]
func (h *FeeHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	summary, err := h.fees.Summary(c.Request.Context(), claims.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// RecordPayment godoc
// @Summary Record a fee payment
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body object true "Payment payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/fees/payments [post]
func (h *FeeHandler) RecordPayment(c *gin.Context) {
	var payload struct {
		Amount int64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "amount required"))
		return
	}
	claims := claimsFromContext(c)
	summary, err := h.fees.RecordPayment(c.Request.Context(), claims.SchoolID, c.Param("id"), payload.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// SendLink godoc
// @Summary Send a payment link for an installment
// @Tags Fees
// @Produce json
// @Param id path string true "Student ID"
// @Param installmentId path string true "Installment ID"
// @Success 204 {object} response.Envelope
// @Router /students/{id}/fees/installments/{installmentId}/link [post]
func (h *FeeHandler) SendLink(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.fees.SendPaymentLink(c.Request.Context(), claims.SchoolID, c.Param("id"), c.Param("installmentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Statement godoc
// @Summary Download a fee statement
// @Tags Fees
// @Produce application/octet-stream
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf, default pdf"
// @Success 200 {file} binary
// @Router /students/{id}/fees/statement [get]
func (h *FeeHandler) Statement(c *gin.Context) {
	format := c.DefaultQuery("format", "pdf")
	claims := claimsFromContext(c)
	payload, filename, err := h.fees.Statement(c.Request.Context(), claims.SchoolID, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	contentType := "application/pdf"
	if format == "csv" {
		contentType = "text/csv"
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, payload)
}
