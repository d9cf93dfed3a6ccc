package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

type mockContactRepo struct {
	items map[string]*models.ContactMessage
}

func (m *mockContactRepo) List(ctx context.Context) ([]models.ContactMessage, error) {
	out := make([]models.ContactMessage, 0, len(m.items))
	for _, message := range m.items {
		out = append(out, *message)
	}
	return out, nil
}

func (m *mockContactRepo) Add(ctx context.Context, message *models.ContactMessage) error {
	if m.items == nil {
		m.items = make(map[string]*models.ContactMessage)
	}
	message.ID = "m1"
	cp := *message
	m.items[message.ID] = &cp
	return nil
}

func (m *mockContactRepo) FindByID(ctx context.Context, id string) (*models.ContactMessage, error) {
	if message, ok := m.items[id]; ok {
		cp := *message
		return &cp, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "message not found")
}

func (m *mockContactRepo) Mutate(ctx context.Context, id string, fn func(*models.ContactMessage) error) error {
	message, ok := m.items[id]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "message not found")
	}
	return fn(message)
}

type countingDrafter struct {
	calls int
	draft string
	err   error
}

func (d *countingDrafter) DraftReply(ctx context.Context, msg models.ContactMessage) (string, error) {
	d.calls++
	return d.draft, d.err
}

func TestContactServiceSubmitSendsAcknowledgment(t *testing.T) {
	repo := &mockContactRepo{}
	drafter := &countingDrafter{draft: "Thank you, we will be in touch."}
	mailer := &recordingMailer{}
	service := NewContactService(repo, drafter, mailer, nil, zap.NewNop())

	message, err := service.Submit(context.Background(), ContactRequest{
		Name:    "A Visitor",
		Email:   "visitor@example.com",
		Message: "What are the admission dates?",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.items[message.ID])

	assert.Equal(t, 1, drafter.calls)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "visitor@example.com", mailer.sent[0].ToEmail)
	assert.Equal(t, "We received your enquiry", mailer.sent[0].Subject)
	assert.Equal(t, "Thank you, we will be in touch.", mailer.sent[0].Body)
}

func TestContactServiceSubmitDraftFailureStillAcknowledges(t *testing.T) {
	repo := &mockContactRepo{}
	drafter := &countingDrafter{err: errors.New("model unavailable")}
	mailer := &recordingMailer{}
	service := NewContactService(repo, drafter, mailer, nil, zap.NewNop())

	_, err := service.Submit(context.Background(), ContactRequest{
		Name:    "A Visitor",
		Email:   "visitor@example.com",
		Message: "What are the admission dates?",
	})
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].Body, "Thank you for contacting us")
}

func TestContactServiceSubmitWithoutMailer(t *testing.T) {
	repo := &mockContactRepo{}
	drafter := &countingDrafter{}
	service := NewContactService(repo, drafter, nil, nil, zap.NewNop())

	message, err := service.Submit(context.Background(), ContactRequest{
		Name:    "A Visitor",
		Email:   "visitor@example.com",
		Message: "What are the admission dates?",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.items[message.ID])
	assert.Zero(t, drafter.calls)
}

func TestContactServiceSubmitValidation(t *testing.T) {
	service := NewContactService(&mockContactRepo{}, nil, nil, nil, zap.NewNop())

	_, err := service.Submit(context.Background(), ContactRequest{Name: "A Visitor"})
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrValidation.Code, typed.Code)
}

func TestContactServiceReplyConflict(t *testing.T) {
	repo := &mockContactRepo{items: map[string]*models.ContactMessage{
		"m1": {ID: "m1", Name: "A Visitor", Email: "visitor@example.com", Reply: "already answered"},
	}}
	service := NewContactService(repo, nil, &recordingMailer{}, nil, zap.NewNop())

	_, err := service.Reply(context.Background(), "m1", "a second answer")
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrConflict.Code, typed.Code)
}
