package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/webandapp/institute-api/internal/models"
	"github.com/webandapp/institute-api/internal/service"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

type authUserRepoMock struct {
	users  map[string]*models.User
	tokens map[string]*models.RefreshToken
}

func newAuthUserRepoMock() *authUserRepoMock {
	return &authUserRepoMock{
		users:  map[string]*models.User{},
		tokens: map[string]*models.RefreshToken{},
	}
}

func (m *authUserRepoMock) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
}

func (m *authUserRepoMock) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
}

func (m *authUserRepoMock) Upsert(ctx context.Context, user *models.User) error {
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *authUserRepoMock) TouchLastLogin(ctx context.Context, id string, ts time.Time) error {
	if user, ok := m.users[id]; ok {
		user.LastLogin = &ts
	}
	return nil
}

func (m *authUserRepoMock) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	cp := *token
	m.tokens[token.Token] = &cp
	return nil
}

func (m *authUserRepoMock) FindRefreshToken(ctx context.Context, value string) (*models.RefreshToken, error) {
	if token, ok := m.tokens[value]; ok {
		cp := *token
		return &cp, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "refresh token not found")
}

func (m *authUserRepoMock) RevokeRefreshToken(ctx context.Context, id string) error {
	for _, token := range m.tokens {
		if token.ID == id {
			token.Revoked = true
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, "refresh token not found")
}

type authStudentsMock struct{}

func (m *authStudentsMock) FindByEmail(ctx context.Context, schoolID, email string) (*models.Student, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

func (m *authStudentsMock) FindByID(ctx context.Context, schoolID, id string) (*models.Student, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

func newAuthHandlerFixture(t *testing.T, repo *authUserRepoMock) *AuthHandler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.users["u1"] = &models.User{
		ID:           "u1",
		Email:        "admin@institute.test",
		PasswordHash: string(hash),
		FullName:     "Admin",
		Role:         models.RoleAdmin,
		SchoolID:     "main",
		Active:       true,
	}
	svc := service.NewAuthService(repo, &authStudentsMock{}, nil, zap.NewNop(), service.AuthConfig{
		AccessTokenSecret:  "test_secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: time.Hour,
		Issuer:             "institute-api",
		SchoolID:           "main",
	})
	return NewAuthHandler(svc)
}

func TestAuthHandlerLogin(t *testing.T) {
	repo := newAuthUserRepoMock()
	handler := newAuthHandlerFixture(t, repo)

	w := httptest.NewRecorder()
	c := adminContext(t, w)
	body, _ := json.Marshal(map[string]string{
		"email":    "admin@institute.test",
		"password": "secret123",
	})
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.AccessToken)
	require.NotEmpty(t, envelope.Data.RefreshToken)
	require.Equal(t, "u1", envelope.Data.User.ID)
	require.Equal(t, models.RoleAdmin, envelope.Data.User.Role)
}

func TestAuthHandlerLoginBadCredentials(t *testing.T) {
	repo := newAuthUserRepoMock()
	handler := newAuthHandlerFixture(t, repo)

	w := httptest.NewRecorder()
	c := adminContext(t, w)
	body, _ := json.Marshal(map[string]string{
		"email":    "admin@institute.test",
		"password": "wrong",
	})
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerLoginInvalidBody(t *testing.T) {
	handler := newAuthHandlerFixture(t, newAuthUserRepoMock())

	w := httptest.NewRecorder()
	c := adminContext(t, w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte("{")))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerRefreshRotatesToken(t *testing.T) {
	repo := newAuthUserRepoMock()
	handler := newAuthHandlerFixture(t, repo)
	repo.tokens["rt1"] = &models.RefreshToken{
		ID:        "tok1",
		UserID:    "u1",
		Token:     "rt1",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	w := httptest.NewRecorder()
	c := adminContext(t, w)
	body, _ := json.Marshal(map[string]string{"refresh_token": "rt1"})
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Refresh(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data models.RefreshTokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.AccessToken)
	require.NotEqual(t, "rt1", envelope.Data.RefreshToken)
	require.True(t, repo.tokens["rt1"].Revoked)
}

func TestAuthHandlerLogout(t *testing.T) {
	repo := newAuthUserRepoMock()
	handler := newAuthHandlerFixture(t, repo)
	repo.tokens["rt1"] = &models.RefreshToken{
		ID:        "tok1",
		UserID:    "admin",
		Token:     "rt1",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	w := httptest.NewRecorder()
	c := adminContext(t, w)
	body, _ := json.Marshal(map[string]string{"refresh_token": "rt1"})
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Logout(c)
	// Status-only responses are not flushed to the recorder until the
	// writer is finalized, which a real engine dispatch would do.
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, w.Code)
	require.True(t, repo.tokens["rt1"].Revoked)
}

func TestAuthHandlerMe(t *testing.T) {
	handler := newAuthHandlerFixture(t, newAuthUserRepoMock())

	w := httptest.NewRecorder()
	c := adminContext(t, w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)

	handler.Me(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data models.UserInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "admin", envelope.Data.ID)
	require.Equal(t, models.RoleAdmin, envelope.Data.Role)
}

func TestAuthHandlerMeWithoutClaims(t *testing.T) {
	handler := newAuthHandlerFixture(t, newAuthUserRepoMock())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)

	handler.Me(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
