package handler

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/media"
	"github.com/webandapp/institute-api/pkg/response"
)

// MediaHandler serves stored photos through expiring signed URLs.
type MediaHandler struct {
	storage *media.Storage
	signer  *media.Signer
	baseURL string
}

// NewMediaHandler constructs MediaHandler.
func NewMediaHandler(storage *media.Storage, signer *media.Signer, baseURL string) *MediaHandler {
	return &MediaHandler{storage: storage, signer: signer, baseURL: baseURL}
}

// Sign godoc
// @Summary Create a signed download URL
// @Tags Media
// @Accept json
// @Produce json
// @Param payload body object true "Path payload"
// @Success 200 {object} response.Envelope
// @Router /media/sign [post]
func (h *MediaHandler) Sign(c *gin.Context) {
	var payload struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "path required"))
		return
	}

	token, expiresAt, err := h.signer.Generate(payload.Path)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign url"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"url":        h.baseURL + "/media/download?token=" + token,
		"expires_at": expiresAt,
	}, nil)
}

// Download godoc
// @Summary Download a photo with a signed token
// @Tags Media
// @Produce application/octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Router /media/download [get]
func (h *MediaHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	relPath, _, err := h.signer.Parse(token)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token"))
		return
	}

	file, err := h.storage.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file not found"))
		return
	}
	defer file.Close()

	contentType := mime.TypeByExtension(filepath.Ext(relPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
