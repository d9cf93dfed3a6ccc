package repository

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/webandapp/institute-api/internal/models"
	"github.com/webandapp/institute-api/internal/store"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

// Portal accounts and their refresh tokens are global collections.
const (
	userCollection  = "users"
	tokenCollection = "refreshTokens"
)

// UserRepository manages portal accounts and refresh-token persistence.
type UserRepository struct {
	store *store.Store
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(s *store.Store) *UserRepository {
	return &UserRepository{store: s}
}

// List returns all portal accounts.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.store.Read(ctx, userCollection, "", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FindByEmail resolves an account by email, case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	email = strings.ToLower(email)
	for i := range users {
		if strings.ToLower(users[i].Email) == email {
			return &users[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
}

// FindByID resolves an account by id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
}

// Upsert inserts the account or replaces the record with the same email.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	return r.store.Update(ctx, userCollection, "", func(raw json.RawMessage) (json.RawMessage, error) {
		var users []models.User
		if err := store.DecodeList(raw, &users); err != nil {
			return nil, err
		}
		if user.ID == "" {
			user.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		user.UpdatedAt = now
		for i := range users {
			if strings.EqualFold(users[i].Email, user.Email) {
				user.CreatedAt = users[i].CreatedAt
				users[i] = *user
				return json.Marshal(users)
			}
		}
		user.CreatedAt = now
		return json.Marshal(append(users, *user))
	})
}

// TouchLastLogin records a successful login timestamp.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, ts time.Time) error {
	return r.store.Update(ctx, userCollection, "", func(raw json.RawMessage) (json.RawMessage, error) {
		var users []models.User
		if err := store.DecodeList(raw, &users); err != nil {
			return nil, err
		}
		for i := range users {
			if users[i].ID == id {
				users[i].LastLogin = &ts
				users[i].UpdatedAt = time.Now().UTC()
				break
			}
		}
		return json.Marshal(users)
	})
}

// CreateRefreshToken persists a freshly issued refresh token.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return r.store.Update(ctx, tokenCollection, "", func(raw json.RawMessage) (json.RawMessage, error) {
		var tokens []models.RefreshToken
		if err := store.DecodeList(raw, &tokens); err != nil {
			return nil, err
		}
		if token.ID == "" {
			token.ID = uuid.NewString()
		}
		if token.CreatedAt.IsZero() {
			token.CreatedAt = time.Now().UTC()
		}
		// Expired and revoked tokens are compacted away on each write.
		live := tokens[:0]
		cutoff := time.Now().UTC()
		for _, existing := range tokens {
			if existing.Revoked || existing.ExpiresAt.Before(cutoff) {
				continue
			}
			live = append(live, existing)
		}
		return json.Marshal(append(live, *token))
	})
}

// FindRefreshToken resolves a live refresh token by its opaque value.
func (r *UserRepository) FindRefreshToken(ctx context.Context, value string) (*models.RefreshToken, error) {
	var tokens []models.RefreshToken
	if err := r.store.Read(ctx, tokenCollection, "", &tokens); err != nil {
		return nil, err
	}
	for i := range tokens {
		if tokens[i].Token == value && !tokens[i].Revoked {
			return &tokens[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "refresh token not found")
}

// RevokeRefreshToken marks the token revoked. Only the presented token is
// touched; other sessions of the same user stay valid.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string) error {
	return r.store.Update(ctx, tokenCollection, "", func(raw json.RawMessage) (json.RawMessage, error) {
		var tokens []models.RefreshToken
		if err := store.DecodeList(raw, &tokens); err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		for i := range tokens {
			if tokens[i].ID == id {
				tokens[i].Revoked = true
				tokens[i].RevokedAt = &now
				break
			}
		}
		return json.Marshal(tokens)
	})
}
