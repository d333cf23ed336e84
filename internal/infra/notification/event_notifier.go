package notification

import (
	"context"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/service"
	"storefront/internal/errors"

	"github.com/google/uuid"
)

// EventNotifier hands account emails to the mail worker through the event publisher.
type EventNotifier struct {
	publisher service.EventPublisher
}

// NewEventNotifier creates a Notifier that publishes mail events.
func NewEventNotifier(publisher service.EventPublisher) *EventNotifier {
	return &EventNotifier{publisher: publisher}
}

func (n *EventNotifier) SendVerification(ctx context.Context, email, token string) error {
	return n.publish(ctx, service.MailKindVerification, email, token)
}

func (n *EventNotifier) SendPasswordReset(ctx context.Context, email, token string) error {
	return n.publish(ctx, service.MailKindPasswordReset, email, token)
}

func (n *EventNotifier) publish(ctx context.Context, kind service.MailKind, email, token string) error {
	event := &service.MailEvent{
		RequestID: deliverycontext.GetRequestIDFromContext(ctx),
		EventID:   uuid.NewString(),
		Kind:      kind,
		Email:     email,
		Token:     token,
	}

	if err := n.publisher.PublishMailEvent(ctx, event); err != nil {
		return errors.Wrapf(err, "failed to publish %s mail event", kind)
	}

	return nil
}
