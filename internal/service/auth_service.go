package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	TouchLastLogin(ctx context.Context, id string, ts time.Time) error
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, value string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string) error
}

type authStudentRepository interface {
	FindByEmail(ctx context.Context, schoolID, email string) (*models.Student, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.Student, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
	SchoolID           string
	AdminEmail         string
	AdminPassword      string
	AdminFullName      string
}

// AuthService provides authentication for both portal tracks. Administrators
// are looked up in the account collection; students authenticate against
// their own student record.
type AuthService struct {
	users     authUserRepository
	students  authStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, students authStudentRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{users: users, students: students, validator: validate, logger: logger, config: config}
}

// BootstrapAdmin seeds the configured administrator account when absent.
func (s *AuthService) BootstrapAdmin(ctx context.Context) error {
	if s.config.AdminEmail == "" || s.config.AdminPassword == "" {
		return nil
	}
	if _, err := s.users.FindByEmail(ctx, s.config.AdminEmail); err == nil {
		return nil
	} else if appErr := appErrors.FromError(err); appErr.Code != appErrors.ErrNotFound.Code {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.config.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash bootstrap password")
	}

	fullName := s.config.AdminFullName
	if fullName == "" {
		fullName = "Administrator"
	}
	admin := &models.User{
		ID:           uuid.NewString(),
		Email:        s.config.AdminEmail,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         models.RoleAdmin,
		SchoolID:     s.config.SchoolID,
		Active:       true,
	}
	if err := s.users.Upsert(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("bootstrap administrator seeded", zap.String("email", admin.Email))
	return nil
}

// Login authenticates either track and returns issued tokens.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.resolveAccount(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	accessToken, _, err := s.generateAccessToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refreshTokenValue, err := s.generateRefreshTokenString()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	refreshToken := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     refreshTokenValue,
		ExpiresAt: time.Now().UTC().Add(s.config.RefreshTokenExpiry),
		CreatedAt: time.Now().UTC(),
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
	}
	if err := s.users.CreateRefreshToken(ctx, refreshToken); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refresh token")
	}

	if user.Role == models.RoleAdmin {
		if err := s.users.TouchLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
			s.logger.Warn("failed to update last login", zap.Error(err))
		}
	}

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken.Token,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     time.Now().UTC(),
		User: models.UserInfo{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     user.Role,
			SchoolID: user.SchoolID,
		},
	}, nil
}

// RefreshToken exchanges a refresh token for a new access token pair. The
// presented token is revoked so each value is usable exactly once.
func (s *AuthService) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid refresh payload")
	}

	stored, err := s.users.FindRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
	}
	if stored.Revoked || time.Now().UTC().After(stored.ExpiresAt) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is expired or revoked")
	}

	user, err := s.resolveAccountByID(ctx, stored.UserID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "associated account no longer exists")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	if err := s.users.RevokeRefreshToken(ctx, stored.ID); err != nil {
		s.logger.Warn("failed to revoke used refresh token", zap.Error(err))
	}

	accessToken, _, err := s.generateAccessToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate access token")
	}

	refreshTokenValue, err := s.generateRefreshTokenString()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	newRefresh := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     refreshTokenValue,
		ExpiresAt: time.Now().UTC().Add(s.config.RefreshTokenExpiry),
		CreatedAt: time.Now().UTC(),
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
	}
	if err := s.users.CreateRefreshToken(ctx, newRefresh); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refresh token")
	}

	return &models.RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefresh.Token,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     time.Now().UTC(),
	}, nil
}

// Logout revokes the presented refresh token. Other sessions of the same
// account keep working.
func (s *AuthService) Logout(ctx context.Context, refreshToken, userID string) error {
	stored, err := s.users.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
	}
	if stored.UserID != userID {
		return appErrors.Clone(appErrors.ErrForbidden, "token does not belong to user")
	}
	if err := s.users.RevokeRefreshToken(ctx, stored.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke refresh token")
	}
	return nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) resolveAccount(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if appErr := appErrors.FromError(err); appErr.Code != appErrors.ErrNotFound.Code {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch account")
	}

	student, err := s.students.FindByEmail(ctx, s.config.SchoolID, email)
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrNotFound.Code {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch account")
	}
	return studentAccount(student, s.config.SchoolID), nil
}

func (s *AuthService) resolveAccountByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err == nil {
		return user, nil
	}
	student, err := s.students.FindByID(ctx, s.config.SchoolID, id)
	if err != nil {
		return nil, err
	}
	return studentAccount(student, s.config.SchoolID), nil
}

// studentAccount projects a student record into the account shape used by
// token issuance. Only enrolled students can sign in.
func studentAccount(student *models.Student, schoolID string) *models.User {
	return &models.User{
		ID:           student.ID,
		Email:        student.Email,
		PasswordHash: student.PasswordHash,
		FullName:     student.FullName,
		Role:         models.RoleStudent,
		SchoolID:     schoolID,
		Active:       student.Status == models.StudentEnrolled,
		CreatedAt:    student.CreatedAt,
		UpdatedAt:    student.UpdatedAt,
	}
}

func (s *AuthService) generateAccessToken(user *models.User) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID:   user.ID,
		Role:     user.Role,
		Email:    user.Email,
		FullName: user.FullName,
		SchoolID: user.SchoolID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *AuthService) generateRefreshTokenString() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
