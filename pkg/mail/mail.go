// Package mail defines the outbound email boundary. The contact flow is
// the only producer today; delivery failures surface as errors with no
// retry, matching the rest of the network boundary.
package mail

import "context"

// Message is one outbound email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Body    string
}

// Service is any provider that can deliver messages.
type Service interface {
	Send(ctx context.Context, msg Message) error
}
