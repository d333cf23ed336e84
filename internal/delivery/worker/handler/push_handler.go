// Package handler contains the Pub/Sub push handler of the mail worker.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"storefront/config"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/constants"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/infra/mail"
	"storefront/internal/infra/pubsub"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// MailDispatcher renders and delivers the email a MailEvent names.
type MailDispatcher interface {
	Send(ctx context.Context, kind service.MailKind, email, token string) error
}

// tokenVerifier checks the OIDC token Google attaches to push requests.
type tokenVerifier func(req *http.Request) error

// PushHandler turns Pub/Sub push messages into account emails.
//
// Responses drive Pub/Sub redelivery: 503 asks for a retry, any 2xx acks the
// message. Payloads that can never succeed are acked so they are not retried forever.
type PushHandler struct {
	verify tokenVerifier
	mailer MailDispatcher
	logger *slog.Logger
}

// PushHandlerParams holds dependencies for the PushHandler
type PushHandlerParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
	Mailer MailDispatcher
}

// NewPushHandler creates a new Pub/Sub push handler. Push tokens are verified
// only for the google provider outside develop.
func NewPushHandler(params PushHandlerParams) *PushHandler {
	h := &PushHandler{
		mailer: params.Mailer,
		logger: params.Logger,
	}

	if params.Config.PubSub != nil &&
		params.Config.PubSub.Provider == constants.PubSubProviderGoogle &&
		params.Config.Env.Env != constants.EnvDevelop {
		h.verify = verifyPubSubToken
	}

	return h
}

// NewMailDispatcher builds the SMTP notifier the worker sends through.
func NewMailDispatcher(cfg *config.Config, logger *slog.Logger) (MailDispatcher, error) {
	if cfg.Mail == nil {
		return nil, errors.New("mail configuration is required by the mail worker")
	}

	notifier, err := mail.NewNotifierFromConfig(cfg.Mail, logger)
	if err != nil {
		return nil, err
	}

	return notifier, nil
}

// HandlePush handles incoming Pub/Sub push messages
func (h *PushHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()

	if h.verify != nil {
		if err := h.verify(c.Request()); err != nil {
			h.logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	var pushMsg pubsub.PushMessage
	if err := c.Bind(&pushMsg); err != nil {
		h.logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	event, err := decodeMailEvent(&pushMsg)
	if err != nil {
		h.logger.Error("[Worker] Dropping undecodable mail event",
			slog.String("message_id", pushMsg.Message.MessageID),
			slog.Any("error", err),
		)

		return c.NoContent(http.StatusOK)
	}

	requestID := extractRequestID(ctx, &pushMsg, event)
	reqLogger := h.logger.With(slog.String("request_id", requestID))
	ctx = deliverycontext.WithRequestID(ctx, requestID)
	ctx = deliverycontext.WithLogger(ctx, reqLogger)

	reqLogger.Info("[Worker] Delivering mail event",
		slog.String("event_id", event.EventID),
		slog.String("kind", string(event.Kind)),
	)

	if err := h.mailer.Send(ctx, event.Kind, event.Email, event.Token); err != nil {
		retry := !errors.Is(err, mail.ErrUnknownMailKind)
		reqLogger.Error("[Worker] Failed to deliver mail event",
			slog.String("event_id", event.EventID),
			slog.Any("error", err),
			slog.Bool("retryable", retry),
		)
		if retry {
			return c.NoContent(http.StatusServiceUnavailable)
		}

		return c.NoContent(http.StatusOK)
	}

	reqLogger.Info("[Worker] Mail event delivered", slog.String("event_id", event.EventID))

	return c.NoContent(http.StatusOK)
}

func decodeMailEvent(pushMsg *pubsub.PushMessage) (*service.MailEvent, error) {
	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode message data")
	}

	var event service.MailEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, errors.Wrap(err, "failed to parse mail event")
	}

	if event.Email == "" || event.Token == "" {
		return nil, errors.New("mail event is missing email or token")
	}

	return &event, nil
}

// extractRequestID prefers message attributes, then the payload, then the push request itself.
func extractRequestID(ctx context.Context, pushMsg *pubsub.PushMessage, event *service.MailEvent) string {
	if requestID := pushMsg.Message.Attributes[constants.RequestIDAttribute]; requestID != "" {
		return requestID
	}
	if event.RequestID != "" {
		return event.RequestID
	}
	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		return requestID
	}

	return uuid.NewString()
}

// verifyPubSubToken validates the Google-signed OIDC token on a push request.
// See https://cloud.google.com/pubsub/docs/push#authenticating_standard_push_requests
func verifyPubSubToken(req *http.Request) error {
	token, found := strings.CutPrefix(req.Header.Get(echo.HeaderAuthorization), "Bearer ")
	if !found || token == "" {
		return errors.New("missing bearer token")
	}

	scheme := "https"
	if req.TLS == nil {
		scheme = "http"
	}
	audience := scheme + "://" + req.Host + req.URL.Path

	payload, err := idtoken.Validate(req.Context(), token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	return nil
}
