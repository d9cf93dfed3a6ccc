package repository

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/webandapp/institute-api/internal/models"
	"github.com/webandapp/institute-api/internal/store"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

const (
	contactCollection = "contactMessages"
	videoCollection   = "videoAds"
)

// ContactRepository persists messages from the public contact form.
type ContactRepository struct {
	store *store.Store
}

// NewContactRepository constructs a ContactRepository.
func NewContactRepository(s *store.Store) *ContactRepository {
	return &ContactRepository{store: s}
}

// List returns all contact messages, newest first.
func (r *ContactRepository) List(ctx context.Context) ([]models.ContactMessage, error) {
	var messages []models.ContactMessage
	if err := r.store.Read(ctx, contactCollection, "", &messages); err != nil {
		return nil, err
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})
	return messages, nil
}

// Add appends a new message.
func (r *ContactRepository) Add(ctx context.Context, message *models.ContactMessage) error {
	return r.store.Update(ctx, contactCollection, "", func(raw json.RawMessage) (json.RawMessage, error) {
		var messages []models.ContactMessage
		if err := store.DecodeList(raw, &messages); err != nil {
			return nil, err
		}
		if message.ID == "" {
			message.ID = uuid.NewString()
		}
		message.CreatedAt = time.Now().UTC()
		return json.Marshal(append(messages, *message))
	})
}

// FindByID resolves one contact message.
func (r *ContactRepository) FindByID(ctx context.Context, id string) (*models.ContactMessage, error) {
	var messages []models.ContactMessage
	if err := r.store.Read(ctx, contactCollection, "", &messages); err != nil {
		return nil, err
	}
	for i := range messages {
		if messages[i].ID == id {
			return &messages[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "contact message not found")
}

// Mutate applies an in-place change to one message under the CAS loop.
func (r *ContactRepository) Mutate(ctx context.Context, id string, fn func(*models.ContactMessage) error) error {
	return r.store.Update(ctx, contactCollection, "", func(raw json.RawMessage) (json.RawMessage, error) {
		var messages []models.ContactMessage
		if err := store.DecodeList(raw, &messages); err != nil {
			return nil, err
		}
		for i := range messages {
			if messages[i].ID == id {
				if err := fn(&messages[i]); err != nil {
					return nil, err
				}
				return json.Marshal(messages)
			}
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "contact message not found")
	})
}

// VideoRepository persists promotional-video generation requests.
type VideoRepository struct {
	store *store.Store
}

// NewVideoRepository constructs a VideoRepository.
func NewVideoRepository(s *store.Store) *VideoRepository {
	return &VideoRepository{store: s}
}

// List returns all video-ad records, newest first.
func (r *VideoRepository) List(ctx context.Context) ([]models.VideoAd, error) {
	var ads []models.VideoAd
	if err := r.store.Read(ctx, videoCollection, "", &ads); err != nil {
		return nil, err
	}
	sort.Slice(ads, func(i, j int) bool {
		return ads[i].CreatedAt.After(ads[j].CreatedAt)
	})
	return ads, nil
}

// FindByID resolves one video-ad record.
func (r *VideoRepository) FindByID(ctx context.Context, id string) (*models.VideoAd, error) {
	ads, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range ads {
		if ads[i].ID == id {
			return &ads[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "video ad not found")
}

// Add appends a new pending record.
func (r *VideoRepository) Add(ctx context.Context, ad *models.VideoAd) error {
	return r.store.Update(ctx, videoCollection, "", func(raw json.RawMessage) (json.RawMessage, error) {
		var ads []models.VideoAd
		if err := store.DecodeList(raw, &ads); err != nil {
			return nil, err
		}
		if ad.ID == "" {
			ad.ID = uuid.NewString()
		}
		if ad.Status == "" {
			ad.Status = models.VideoAdPending
		}
		now := time.Now().UTC()
		ad.CreatedAt = now
		ad.UpdatedAt = now
		return json.Marshal(append(ads, *ad))
	})
}

// Mutate applies an in-place change to one record under the CAS loop.
func (r *VideoRepository) Mutate(ctx context.Context, id string, fn func(*models.VideoAd) error) error {
	return r.store.Update(ctx, videoCollection, "", func(raw json.RawMessage) (json.RawMessage, error) {
		var ads []models.VideoAd
		if err := store.DecodeList(raw, &ads); err != nil {
			return nil, err
		}
		for i := range ads {
			if ads[i].ID == id {
				if err := fn(&ads[i]); err != nil {
					return nil, err
				}
				ads[i].UpdatedAt = time.Now().UTC()
				return json.Marshal(ads)
			}
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "video ad not found")
	})
}
