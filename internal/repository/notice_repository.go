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

// Notices and job postings are global collections, not tenant-scoped.
const (
	noticeCollection = "notices"
	jobCollection    = "govtJobs"
)

// NoticeRepository is the CRUD façade over the global notice board.
type NoticeRepository struct {
	store *store.Store
}

// NewNoticeRepository constructs a NoticeRepository.
func NewNoticeRepository(s *store.Store) *NoticeRepository {
	return &NoticeRepository{store: s}
}

// List returns all notices, newest first.
func (r *NoticeRepository) List(ctx context.Context) ([]models.Notice, error) {
	var notices []models.Notice
	if err := r.store.Read(ctx, noticeCollection, "", &notices); err != nil {
		return nil, err
	}
	sort.Slice(notices, func(i, j int) bool {
		return notices[i].CreatedAt.After(notices[j].CreatedAt)
	})
	return notices, nil
}

// Add appends a new notice.
func (r *NoticeRepository) Add(ctx context.Context, notice *models.Notice) error {
	return r.store.Update(ctx, noticeCollection, "", func(raw json.RawMessage) (json.RawMessage, error) {
		var notices []models.Notice
		if err := store.DecodeList(raw, &notices); err != nil {
			return nil, err
		}
		if notice.ID == "" {
			notice.ID = uuid.NewString()
		}
		notice.CreatedAt = time.Now().UTC()
		return json.Marshal(append(notices, *notice))
	})
}

// Remove deletes the notice with the given id.
func (r *NoticeRepository) Remove(ctx context.Context, id string) error {
	return r.store.Update(ctx, noticeCollection, "", func(raw json.RawMessage) (json.RawMessage, error) {
		var notices []models.Notice
		if err := store.DecodeList(raw, &notices); err != nil {
			return nil, err
		}
		filtered := notices[:0]
		found := false
		for _, notice := range notices {
			if notice.ID == id {
				found = true
				continue
			}
			filtered = append(filtered, notice)
		}
		if !found {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return json.Marshal(filtered)
	})
}

// JobRepository is the CRUD façade over the global job-posting board.
type JobRepository struct {
	store *store.Store
}

// NewJobRepository constructs a JobRepository.
func NewJobRepository(s *store.Store) *JobRepository {
	return &JobRepository{store: s}
}

// List returns all job postings, newest first.
func (r *JobRepository) List(ctx context.Context) ([]models.JobPosting, error) {
	var jobs []models.JobPosting
	if err := r.store.Read(ctx, jobCollection, "", &jobs); err != nil {
		return nil, err
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

// Add appends a new posting.
func (r *JobRepository) Add(ctx context.Context, job *models.JobPosting) error {
	return r.store.Update(ctx, jobCollection, "", func(raw json.RawMessage) (json.RawMessage, error) {
		var jobs []models.JobPosting
		if err := store.DecodeList(raw, &jobs); err != nil {
			return nil, err
		}
		if job.ID == "" {
			job.ID = uuid.NewString()
		}
		job.CreatedAt = time.Now().UTC()
		return json.Marshal(append(jobs, *job))
	})
}

// Remove deletes the posting with the given id.
func (r *JobRepository) Remove(ctx context.Context, id string) error {
	return r.store.Update(ctx, jobCollection, "", func(raw json.RawMessage) (json.RawMessage, error) {
		var jobs []models.JobPosting
		if err := store.DecodeList(raw, &jobs); err != nil {
			return nil, err
		}
		filtered := jobs[:0]
		found := false
		for _, job := range jobs {
			if job.ID == id {
				found = true
				continue
			}
			filtered = append(filtered, job)
		}
		if !found {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job posting not found")
		}
		return json.Marshal(filtered)
	})
}
