package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/jobs"
)

type videoRepository interface {
	List(ctx context.Context) ([]models.VideoAd, error)
	FindByID(ctx context.Context, id string) (*models.VideoAd, error)
	Add(ctx context.Context, ad *models.VideoAd) error
	Mutate(ctx context.Context, id string, fn func(*models.VideoAd) error) error
}

type storyboardDrafter interface {
	Storyboard(ctx context.Context, prompt string) (string, error)
}

// VideoServiceConfig tunes the long-running generation flow.
type VideoServiceConfig struct {
	OperationURL string
	PollInterval time.Duration
	PollTimeout  time.Duration
	Workers      int
}

// VideoService generates promotional videos. The worker first asks the
// assistant for a storyboard, then drives an external long-running
// operation to completed or failed. Requests are persisted immediately.
type VideoService struct {
	repo        videoRepository
	storyboards storyboardDrafter
	client      *http.Client
	dispatcher  *jobs.Dispatcher
	logger      *zap.Logger
	config      VideoServiceConfig
}

// NewVideoService constructs the video service. storyboards may be nil;
// Start must be called before Generate can queue work.
func NewVideoService(repo videoRepository, storyboards storyboardDrafter, client *http.Client, logger *zap.Logger, config VideoServiceConfig) *VideoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = 5 * time.Minute
	}

	s := &VideoService{repo: repo, storyboards: storyboards, client: client, logger: logger, config: config}
	s.dispatcher = jobs.NewDispatcher("video-generation", s.process, jobs.Options{
		Workers: config.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the background dispatcher.
func (s *VideoService) Start(ctx context.Context) {
	s.dispatcher.Start(ctx)
}

// Stop drains the dispatcher.
func (s *VideoService) Stop() {
	s.dispatcher.Stop()
}

// List returns all generation requests, newest first.
func (s *VideoService) List(ctx context.Context) ([]models.VideoAd, error) {
	return s.repo.List(ctx)
}

// Get returns one generation request.
func (s *VideoService) Get(ctx context.Context, id string) (*models.VideoAd, error) {
	return s.repo.FindByID(ctx, id)
}

// Generate records a request and queues it for background processing.
func (s *VideoService) Generate(ctx context.Context, prompt string) (*models.VideoAd, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "prompt must not be empty")
	}
	if s.config.OperationURL == "" {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "video generation is not configured")
	}

	ad := &models.VideoAd{Prompt: prompt}
	if err := s.repo.Add(ctx, ad); err != nil {
		return nil, err
	}
	if err := s.dispatcher.Submit(jobs.Task{ID: ad.ID, Kind: "generate", RecordID: ad.ID}); err != nil {
		s.fail(ctx, ad.ID, "generation queue unavailable")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue generation")
	}
	return ad, nil
}

// process drives one request through the external operation lifecycle.
func (s *VideoService) process(ctx context.Context, task jobs.Task) error {
	ad, err := s.repo.FindByID(ctx, task.RecordID)
	if err != nil {
		return err
	}
	if ad.Status == models.VideoAdCompleted || ad.Status == models.VideoAdFailed {
		return nil
	}

	if err := s.repo.Mutate(ctx, ad.ID, func(a *models.VideoAd) error {
		a.Status = models.VideoAdProcessing
		return nil
	}); err != nil {
		return err
	}

	storyboard := s.draftStoryboard(ctx, ad)

	operation, err := s.startOperation(ctx, ad.Prompt, storyboard)
	if err != nil {
		s.fail(ctx, ad.ID, err.Error())
		return nil
	}

	videoURL, err := s.pollOperation(ctx, operation)
	if err != nil {
		s.fail(ctx, ad.ID, err.Error())
		return nil
	}

	return s.repo.Mutate(ctx, ad.ID, func(a *models.VideoAd) error {
		a.Status = models.VideoAdCompleted
		a.VideoURL = videoURL
		a.FailureNote = ""
		return nil
	})
}

type operationState struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Response struct {
		VideoURL string `json:"videoUrl"`
	} `json:"response"`
}

// draftStoryboard asks the assistant to script the video and persists the
// result on the record. Drafting is best effort; the operation proceeds on
// the raw prompt when the assistant is unavailable.
func (s *VideoService) draftStoryboard(ctx context.Context, ad *models.VideoAd) string {
	if s.storyboards == nil {
		return ""
	}
	storyboard, err := s.storyboards.Storyboard(ctx, ad.Prompt)
	if err != nil {
		s.logger.Warn("storyboard generation failed", zap.String("video_id", ad.ID), zap.Error(err))
		return ""
	}
	if err := s.repo.Mutate(ctx, ad.ID, func(a *models.VideoAd) error {
		a.Storyboard = storyboard
		return nil
	}); err != nil {
		s.logger.Warn("failed to record storyboard", zap.String("video_id", ad.ID), zap.Error(err))
	}
	return storyboard
}

func (s *VideoService) startOperation(ctx context.Context, prompt, storyboard string) (string, error) {
	body := map[string]string{"prompt": prompt}
	if storyboard != "" {
		body["storyboard"] = storyboard
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.OperationURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("start operation: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("start operation: unexpected status %d", resp.StatusCode)
	}

	var state operationState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return "", fmt.Errorf("decode operation: %w", err)
	}
	if state.Name == "" {
		return "", fmt.Errorf("operation response missing name")
	}
	return state.Name, nil
}

func (s *VideoService) pollOperation(ctx context.Context, operation string) (string, error) {
	deadline := time.Now().Add(s.config.PollTimeout)
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("operation %s timed out", operation)
		}

		url := strings.TrimRight(s.config.OperationURL, "/") + "/" + operation
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			s.logger.Warn("operation poll failed", zap.String("operation", operation), zap.Error(err))
			continue
		}

		var state operationState
		err = json.NewDecoder(resp.Body).Decode(&state)
		resp.Body.Close()
		if err != nil {
			s.logger.Warn("operation decode failed", zap.String("operation", operation), zap.Error(err))
			continue
		}

		if !state.Done {
			continue
		}
		if state.Error != nil {
			return "", fmt.Errorf("operation failed: %s", state.Error.Message)
		}
		if state.Response.VideoURL == "" {
			return "", fmt.Errorf("operation finished without a video")
		}
		return state.Response.VideoURL, nil
	}
}

func (s *VideoService) fail(ctx context.Context, id, note string) {
	if err := s.repo.Mutate(ctx, id, func(a *models.VideoAd) error {
		a.Status = models.VideoAdFailed
		a.FailureNote = note
		return nil
	}); err != nil {
		s.logger.Warn("failed to record generation failure", zap.String("video_id", id), zap.Error(err))
	}
}
