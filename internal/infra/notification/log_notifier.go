package notification

import (
	"context"
	"log/slog"

	deliverycontext "storefront/internal/delivery/context"
)

// LogNotifier only logs. Tokens are never written to the log.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendVerification(ctx context.Context, email, _ string) error {
	deliverycontext.GetLoggerOrDefault(ctx, n.logger).InfoContext(ctx, "Verification email requested, no mail transport configured",
		slog.String("email", email),
	)

	return nil
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, email, _ string) error {
	deliverycontext.GetLoggerOrDefault(ctx, n.logger).InfoContext(ctx, "Password reset email requested, no mail transport configured",
		slog.String("email", email),
	)

	return nil
}
