package notifier

import (
	"context"

	"github.com/nemanjakrstic/snitch/internal/types"
)

// Notification is one rendered message addressed to one recipient.
type Notification struct {
	RecipientID string       `json:"recipientId"`
	Email       string       `json:"email"`
	Pipeline    string       `json:"pipeline"`
	Counter     int          `json:"counter,omitempty"`
	Status      types.Status `json:"status"`
	Message     Message      `json:"message"`
}

// Sender is the interface for delivery channels (Slack DM, webhook, log).
// Send makes exactly one delivery attempt; callers never retry.
type Sender interface {
	// Name returns the sender's identifier (e.g., "slack", "webhook").
	Name() string

	// Send delivers one notification.
	Send(ctx context.Context, n Notification) error
}
