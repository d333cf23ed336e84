package notification

import (
	"context"
	"log/slog"

	"storefront/config"
	"storefront/internal/domain/service"
	"storefront/internal/infra/mail"

	"go.uber.org/fx"
)

// Params holds dependencies for the Notifier, injected by Fx
type Params struct {
	fx.In

	Lc        fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
	Publisher service.EventPublisher
}

// NewNotifier picks the delivery path from configuration and wraps it in an
// AsyncNotifier that is drained on shutdown.
// Pub/Sub wins over SMTP; with neither configured emails are only logged.
func NewNotifier(params Params) (service.Notifier, error) {
	cfg := params.Config
	logger := params.Logger

	var next service.Notifier
	switch {
	case cfg.PubSub != nil && cfg.PubSub.Provider != "":
		logger.Info("Account emails are published to the mail worker", slog.String("provider", cfg.PubSub.Provider))
		next = NewEventNotifier(params.Publisher)
	case cfg.Mail != nil && cfg.Mail.Host != "":
		logger.Info("Account emails are sent over SMTP", slog.String("host", cfg.Mail.Host))
		mailNotifier, err := mail.NewNotifierFromConfig(cfg.Mail, logger)
		if err != nil {
			return nil, err
		}
		next = mailNotifier
	default:
		logger.Warn("No mail transport configured, account emails are only logged")
		next = NewLogNotifier(logger)
	}

	async := NewAsyncNotifier(next, cfg.Notifier.Timeout, cfg.Notifier.MaxInFlight, logger)

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Waiting for in-flight account emails")

			return async.Close(ctx)
		},
	})

	return async, nil
}
