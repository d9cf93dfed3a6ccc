package mail

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGrid delivers messages through the SendGrid v3 API.
type SendGrid struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

var _ Service = (*SendGrid)(nil)

// NewSendGrid constructs a SendGrid-backed mail service.
func NewSendGrid(apiKey, fromName, fromEmail string) *SendGrid {
	return &SendGrid{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// Send delivers the message, reporting non-2xx responses as errors.
func (s *SendGrid) Send(_ context.Context, msg Message) error {
	from := sgmail.NewEmail(s.fromName, s.fromEmail)
	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	email := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.Body)

	resp, err := s.client.Send(email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: unexpected status %d", resp.StatusCode)
	}
	return nil
}
