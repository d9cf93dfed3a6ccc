package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/mail"
)

type contactRepository interface {
	List(ctx context.Context) ([]models.ContactMessage, error)
	Add(ctx context.Context, message *models.ContactMessage) error
	FindByID(ctx context.Context, id string) (*models.ContactMessage, error)
	Mutate(ctx context.Context, id string, fn func(*models.ContactMessage) error) error
}

type replyDrafter interface {
	DraftReply(ctx context.Context, msg models.ContactMessage) (string, error)
}

// ContactRequest holds payload from the public contact form.
type ContactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Message string `json:"message" validate:"required"`
}

// ContactService handles the public enquiry inbox. Replies are emailed to
// the sender and recorded on the message.
type ContactService struct {
	repo      contactRepository
	assistant replyDrafter
	mailer    mail.Service
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContactService constructs the contact service. assistant may be nil.
func NewContactService(repo contactRepository, assistant replyDrafter, mailer mail.Service, validate *validator.Validate, logger *zap.Logger) *ContactService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{repo: repo, assistant: assistant, mailer: mailer, validator: validate, logger: logger}
}

// Submit records a message from the public form and sends the sender an
// acknowledgment. The acknowledgment is best effort; a drafting or mail
// failure never rejects the submission.
func (s *ContactService) Submit(ctx context.Context, req ContactRequest) (*models.ContactMessage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contact payload")
	}
	message := &models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	}
	if err := s.repo.Add(ctx, message); err != nil {
		return nil, err
	}
	s.acknowledge(ctx, *message)
	return message, nil
}

// acknowledge emails the sender a receipt, drafted by the assistant when
// one is configured.
func (s *ContactService) acknowledge(ctx context.Context, message models.ContactMessage) {
	if s.mailer == nil {
		return
	}
	body := fmt.Sprintf(
		"Dear %s,\n\nThank you for contacting us. We have received your message and our office will get back to you shortly.",
		message.Name)
	if s.assistant != nil {
		draft, err := s.assistant.DraftReply(ctx, message)
		if err != nil {
			s.logger.Warn("acknowledgment draft failed", zap.String("message_id", message.ID), zap.Error(err))
		} else if draft != "" {
			body = draft
		}
	}
	msg := mail.Message{
		ToName:  message.Name,
		ToEmail: message.Email,
		Subject: "We received your enquiry",
		Body:    body,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("acknowledgment email failed", zap.String("message_id", message.ID), zap.Error(err))
	}
}

// List returns the inbox, newest first.
func (s *ContactService) List(ctx context.Context) ([]models.ContactMessage, error) {
	return s.repo.List(ctx)
}

// DraftReply asks the assistant to propose a reply without sending it.
func (s *ContactService) DraftReply(ctx context.Context, id string) (string, error) {
	if s.assistant == nil {
		return "", appErrors.Clone(appErrors.ErrUpstream, "assistant is not configured")
	}
	message, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.assistant.DraftReply(ctx, *message)
}

// Reply emails the reply to the sender and records it on the message.
// Replying twice is a conflict.
func (s *ContactService) Reply(ctx context.Context, id, reply string) (*models.ContactMessage, error) {
	if reply == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reply must not be empty")
	}

	var replied *models.ContactMessage
	err := s.repo.Mutate(ctx, id, func(message *models.ContactMessage) error {
		if message.Reply != "" {
			return appErrors.Clone(appErrors.ErrConflict, "message has already been replied to")
		}
		message.Reply = reply
		copied := *message
		replied = &copied
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.mailer != nil {
		msg := mail.Message{
			ToName:  replied.Name,
			ToEmail: replied.Email,
			Subject: "Reply to your enquiry",
			Body:    reply,
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.logger.Warn("reply email failed", zap.String("message_id", id), zap.Error(err))
		}
	}
	return replied, nil
}
