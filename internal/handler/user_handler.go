package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webandapp/institute-api/internal/models"
	"github.com/webandapp/institute-api/internal/repository"
	"github.com/webandapp/institute-api/pkg/response"
)

const userListCap = 10

// UserHandler exposes portal account administration.
type UserHandler struct {
	users *repository.UserRepository
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *repository.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// List godoc
// @Summary List portal accounts
// @Description Returns at most ten accounts, the password hash is never serialized
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(users) > userListCap {
		users = users[:userListCap]
	}

	infos := make([]models.UserInfo, 0, len(users))
	for _, user := range users {
		infos = append(infos, models.UserInfo{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     user.Role,
			SchoolID: user.SchoolID,
		})
	}
	response.JSON(c, http.StatusOK, infos, nil)
}
