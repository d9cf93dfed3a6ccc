package mail

import (
	"context"

	"go.uber.org/zap"
)

// Console logs messages instead of delivering them. Development default.
type Console struct {
	logger *zap.Logger
}

var _ Service = (*Console)(nil)

// NewConsole constructs a console mail service.
func NewConsole(logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{logger: logger}
}

// Send logs the message at info level.
func (c *Console) Send(_ context.Context, msg Message) error {
	c.logger.Info("outbound email",
		zap.String("to", msg.ToEmail),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body))
	return nil
}
