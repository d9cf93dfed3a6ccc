package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/jobs"
)

// mockVideoRepo is locked because the dispatcher mutates it from worker
// goroutines.
type mockVideoRepo struct {
	mu    sync.Mutex
	items map[string]*models.VideoAd
}

func (m *mockVideoRepo) List(ctx context.Context) ([]models.VideoAd, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.VideoAd, 0, len(m.items))
	for _, ad := range m.items {
		out = append(out, *ad)
	}
	return out, nil
}

func (m *mockVideoRepo) FindByID(ctx context.Context, id string) (*models.VideoAd, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ad, ok := m.items[id]; ok {
		cp := *ad
		return &cp, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
}

func (m *mockVideoRepo) Add(ctx context.Context, ad *models.VideoAd) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = make(map[string]*models.VideoAd)
	}
	ad.ID = "v1"
	if ad.Status == "" {
		ad.Status = models.VideoAdPending
	}
	cp := *ad
	m.items[ad.ID] = &cp
	return nil
}

func (m *mockVideoRepo) Mutate(ctx context.Context, id string, fn func(*models.VideoAd) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ad, ok := m.items[id]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "video not found")
	}
	return fn(ad)
}

func (m *mockVideoRepo) status(id string) models.VideoAdStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].Status
}

// operationServer fakes the long-running generation API: the submit POST
// returns an operation name, and polls report done after pollsUntilDone.
func operationServer(t *testing.T, pollsUntilDone int, failMessage string) *httptest.Server {
	t.Helper()
	var polls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.NotEmpty(t, body["prompt"])
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"name": "op-1"})
			return
		}

		require.True(t, strings.HasSuffix(r.URL.Path, "/op-1"))
		count := atomic.AddInt32(&polls, 1)
		state := map[string]interface{}{"name": "op-1", "done": false}
		if int(count) >= pollsUntilDone {
			state["done"] = true
			if failMessage != "" {
				state["error"] = map[string]string{"message": failMessage}
			} else {
				state["response"] = map[string]string{"videoUrl": "https://cdn.example.com/v1.mp4"}
			}
		}
		_ = json.NewEncoder(w).Encode(state)
	}))
	t.Cleanup(server.Close)
	return server
}

type mockStoryboarder struct {
	mu    sync.Mutex
	calls int
	draft string
	err   error
}

func (m *mockStoryboarder) Storyboard(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.draft, m.err
}

func videoFixture(t *testing.T, server *httptest.Server) (*VideoService, *mockVideoRepo) {
	t.Helper()
	repo := &mockVideoRepo{}
	var url string
	var client *http.Client
	if server != nil {
		url = server.URL
		client = server.Client()
	}
	service := NewVideoService(repo, nil, client, zap.NewNop(), VideoServiceConfig{
		OperationURL: url,
		PollInterval: 10 * time.Millisecond,
		PollTimeout:  2 * time.Second,
	})
	return service, repo
}

func TestVideoServiceGenerateValidation(t *testing.T) {
	service, _ := videoFixture(t, operationServer(t, 1, ""))

	_, err := service.Generate(context.Background(), "   ")
	require.Error(t, err)
}

func TestVideoServiceGenerateUnconfigured(t *testing.T) {
	service, _ := videoFixture(t, nil)

	_, err := service.Generate(context.Background(), "a campus tour")
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrUpstream.Code, typed.Code)
}

func TestVideoServiceProcessCompletes(t *testing.T) {
	service, repo := videoFixture(t, operationServer(t, 3, ""))
	repo.items = map[string]*models.VideoAd{
		"v1": {ID: "v1", Prompt: "a campus tour", Status: models.VideoAdPending},
	}

	err := service.process(context.Background(), jobs.Task{ID: "v1", Kind: "generate", RecordID: "v1"})
	require.NoError(t, err)

	ad := repo.items["v1"]
	assert.Equal(t, models.VideoAdCompleted, ad.Status)
	assert.Equal(t, "https://cdn.example.com/v1.mp4", ad.VideoURL)
	assert.Empty(t, ad.FailureNote)
}

func TestVideoServiceProcessRecordsFailure(t *testing.T) {
	service, repo := videoFixture(t, operationServer(t, 1, "quota exceeded"))
	repo.items = map[string]*models.VideoAd{
		"v1": {ID: "v1", Prompt: "a campus tour", Status: models.VideoAdPending},
	}

	err := service.process(context.Background(), jobs.Task{ID: "v1", Kind: "generate", RecordID: "v1"})
	require.NoError(t, err)

	ad := repo.items["v1"]
	assert.Equal(t, models.VideoAdFailed, ad.Status)
	assert.Contains(t, ad.FailureNote, "quota exceeded")
}

func TestVideoServiceProcessDraftsStoryboard(t *testing.T) {
	service, repo := videoFixture(t, operationServer(t, 1, ""))
	storyboarder := &mockStoryboarder{draft: "Scene 1: the campus gate at dawn."}
	service.storyboards = storyboarder
	repo.items = map[string]*models.VideoAd{
		"v1": {ID: "v1", Prompt: "a campus tour", Status: models.VideoAdPending},
	}

	err := service.process(context.Background(), jobs.Task{ID: "v1", Kind: "generate", RecordID: "v1"})
	require.NoError(t, err)

	assert.Equal(t, 1, storyboarder.calls)
	ad := repo.items["v1"]
	assert.Equal(t, "Scene 1: the campus gate at dawn.", ad.Storyboard)
	assert.Equal(t, models.VideoAdCompleted, ad.Status)
}

func TestVideoServiceProcessStoryboardFailureIsNonFatal(t *testing.T) {
	service, repo := videoFixture(t, operationServer(t, 1, ""))
	service.storyboards = &mockStoryboarder{err: appErrors.Clone(appErrors.ErrUpstream, "assistant is not configured")}
	repo.items = map[string]*models.VideoAd{
		"v1": {ID: "v1", Prompt: "a campus tour", Status: models.VideoAdPending},
	}

	err := service.process(context.Background(), jobs.Task{ID: "v1", Kind: "generate", RecordID: "v1"})
	require.NoError(t, err)

	ad := repo.items["v1"]
	assert.Empty(t, ad.Storyboard)
	assert.Equal(t, models.VideoAdCompleted, ad.Status)
}

func TestVideoServiceProcessSkipsTerminalRequests(t *testing.T) {
	service, repo := videoFixture(t, operationServer(t, 1, ""))
	repo.items = map[string]*models.VideoAd{
		"v1": {ID: "v1", Status: models.VideoAdCompleted, VideoURL: "https://cdn.example.com/old.mp4"},
	}

	err := service.process(context.Background(), jobs.Task{ID: "v1", RecordID: "v1"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/old.mp4", repo.items["v1"].VideoURL)
}

func TestVideoServiceEndToEnd(t *testing.T) {
	service, repo := videoFixture(t, operationServer(t, 2, ""))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service.Start(ctx)
	defer service.Stop()

	ad, err := service.Generate(ctx, "a campus tour")
	require.NoError(t, err)
	assert.Equal(t, models.VideoAdPending, ad.Status)

	require.Eventually(t, func() bool {
		return repo.status("v1") == models.VideoAdCompleted
	}, 3*time.Second, 20*time.Millisecond)
}
