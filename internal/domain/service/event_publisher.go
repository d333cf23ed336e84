package service

import (
	"context"
)

// MailEvent asks the mail worker to deliver an account email
type MailEvent struct {
	RequestID string   `json:"request_id,omitempty"` // For distributed tracing
	EventID   string   `json:"event_id"`
	Kind      MailKind `json:"kind"`
	Email     string   `json:"email"`
	Token     string   `json:"token"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishMailEvent publishes a mail event for async processing
	PublishMailEvent(ctx context.Context, event *MailEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
