package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// AssistantService answers visitor questions and performs photo cleanup
// through the generative model. When disabled every call returns an
// upstream error instead of a silent empty answer.
type AssistantService struct {
	model   contentGenerator
	logger  *zap.Logger
	enabled bool
}

// NewAssistantService constructs the assistant service. model may be nil
// when the feature is disabled.
func NewAssistantService(model contentGenerator, logger *zap.Logger, enabled bool) *AssistantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantService{model: model, logger: logger, enabled: enabled}
}

// Enabled reports whether the assistant is usable.
func (s *AssistantService) Enabled() bool {
	return s != nil && s.enabled && s.model != nil
}

// Ask answers a free-form question about the institute.
func (s *AssistantService) Ask(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "question must not be empty")
	}
	if !s.Enabled() {
		return "", appErrors.Clone(appErrors.ErrUpstream, "assistant is not configured")
	}

	prompt := fmt.Sprintf(
		"You are the helpful front-desk assistant of an educational institute. Answer the visitor's question briefly and politely. Question: %s",
		question)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "assistant request failed")
	}
	answer := firstText(resp)
	if answer == "" {
		return "", appErrors.Clone(appErrors.ErrUpstream, "assistant returned no answer")
	}
	return answer, nil
}

// DraftReply proposes a reply to a contact-form message for the office to
// review before sending.
func (s *AssistantService) DraftReply(ctx context.Context, msg models.ContactMessage) (string, error) {
	if !s.Enabled() {
		return "", appErrors.Clone(appErrors.ErrUpstream, "assistant is not configured")
	}

	prompt := fmt.Sprintf(
		"Draft a short, courteous reply from an educational institute's office to the following enquiry.\nFrom: %s <%s>\nMessage: %s",
		msg.Name, msg.Email, msg.Message)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "assistant request failed")
	}
	return firstText(resp), nil
}

// Storyboard turns a promotional brief into a short scene-by-scene script
// for the video generator.
func (s *AssistantService) Storyboard(ctx context.Context, prompt string) (string, error) {
	if !s.Enabled() {
		return "", appErrors.Clone(appErrors.ErrUpstream, "assistant is not configured")
	}

	request := fmt.Sprintf(
		"Write a concise scene-by-scene storyboard for a short promotional video of an educational institute. Keep it under six scenes. Brief: %s",
		prompt)

	resp, err := s.model.GenerateContent(ctx, genai.Text(request))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "assistant request failed")
	}
	storyboard := firstText(resp)
	if storyboard == "" {
		return "", appErrors.Clone(appErrors.ErrUpstream, "assistant returned no storyboard")
	}
	return storyboard, nil
}

// RemoveBackground asks the model to return the photo with its background
// removed. The first inline image part of the response is the result.
func (s *AssistantService) RemoveBackground(ctx context.Context, image []byte, mimeType string) ([]byte, string, error) {
	if len(image) == 0 {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "image payload is empty")
	}
	if !s.Enabled() {
		return nil, "", appErrors.Clone(appErrors.ErrUpstream, "assistant is not configured")
	}

	resp, err := s.model.GenerateContent(ctx,
		genai.Text("Remove the background from this photo and return the subject on a plain white background."),
		&genai.Blob{MIMEType: mimeType, Data: image},
	)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "background removal failed")
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if blob, ok := part.(*genai.Blob); ok && len(blob.Data) > 0 {
				return blob.Data, blob.MIMEType, nil
			}
		}
	}
	return nil, "", appErrors.Clone(appErrors.ErrUpstream, "model returned no image")
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
		break
	}
	return strings.TrimSpace(b.String())
}
