package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webandapp/institute-api/internal/service"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/response"
)

// LibraryHandler exposes book circulation endpoints.
type LibraryHandler struct {
	library *service.LibraryService
}

// NewLibraryHandler constructs LibraryHandler.
func NewLibraryHandler(library *service.LibraryService) *LibraryHandler {
	return &LibraryHandler{library: library}
}

// List godoc
// @Summary List library books
// @Tags Library
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /library/books [get]
func (h *LibraryHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	books, err := h.library.List(c.Request.Context(), claims.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, books, nil)
}

// Create godoc
// @Summary Add a book
// @Tags Library
// @Accept json
// @Produce json
// @Param payload body service.BookRequest true "Book payload"
// @Success 201 {object} response.Envelope
// @Router /library/books [post]
func (h *LibraryHandler) Create(c *gin.Context) {
	var req service.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	book, err := h.library.Add(c.Request.Context(), claims.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, book)
}

// Issue godoc
// @Summary Issue a book to a student
// @Tags Library
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Param payload body object true "Issue payload"
// @Success 200 {object} response.Envelope
// @Router /library/books/{id}/issue [post]
func (h *LibraryHandler) Issue(c *gin.Context) {
	var payload struct {
		StudentID string `json:"student_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "student_id required"))
		return
	}
	claims := claimsFromContext(c)
	book, err := h.library.Issue(c.Request.Context(), claims.SchoolID, c.Param("id"), payload.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, book, nil)
}

// Return godoc
// @Summary Return a book
// @Tags Library
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} response.Envelope
// @Router /library/books/{id}/return [post]
func (h *LibraryHandler) Return(c *gin.Context) {
	claims := claimsFromContext(c)
	book, err := h.library.Return(c.Request.Context(), claims.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, book, nil)
}

// Delete godoc
// @Summary Delete a book
// @Tags Library
// @Param id path string true "Book ID"
// @Success 204 {object} response.Envelope
// @Router /library/books/{id} [delete]
func (h *LibraryHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.library.Remove(c.Request.Context(), claims.SchoolID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
