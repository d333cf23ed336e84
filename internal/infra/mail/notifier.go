// Package mail renders account emails and delivers them over SMTP.
package mail

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/url"
	"strings"

	"storefront/config"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
)

const (
	verifyEmailPath   = "/users/verify-email/"
	resetPasswordPath = "/users/reset-password/"
)

// ErrUnknownMailKind is returned by Send for a kind it cannot render.
var ErrUnknownMailKind = errors.New("unknown mail kind")

//nolint:gochecknoglobals
var htmlBody = template.Must(template.New("mail").Parse(`<!DOCTYPE html>
<html>
<body>
<p>{{.Intro}}</p>
<p><a href="{{.Link}}">{{.Action}}</a></p>
<p>If you did not request this, you can ignore this email.</p>
</body>
</html>
`))

type mailContent struct {
	Subject string
	Intro   string
	Action  string
	Link    string
}

// Notifier renders verification and password reset emails and hands them to a MailSender.
type Notifier struct {
	sender  service.MailSender
	baseURL string
	logger  *slog.Logger
}

// NewNotifier creates a Notifier whose links point at baseURL.
func NewNotifier(sender service.MailSender, baseURL string, logger *slog.Logger) *Notifier {
	return &Notifier{
		sender:  sender,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// NewNotifierFromConfig builds an SMTP backed Notifier from the mail section.
func NewNotifierFromConfig(cfg *config.MailConfig, logger *slog.Logger) (*Notifier, error) {
	sender, err := NewSMTPSender(cfg)
	if err != nil {
		return nil, err
	}

	return NewNotifier(sender, cfg.BaseURL, logger), nil
}

// SendVerification emails the email verification link.
func (n *Notifier) SendVerification(ctx context.Context, email, token string) error {
	return n.send(ctx, email, mailContent{
		Subject: "Verify your email",
		Intro:   "Welcome! Please confirm your email address to activate your account.",
		Action:  "Verify email",
		Link:    n.link(verifyEmailPath, token),
	})
}

// SendPasswordReset emails the password reset link.
func (n *Notifier) SendPasswordReset(ctx context.Context, email, token string) error {
	return n.send(ctx, email, mailContent{
		Subject: "Reset your password",
		Intro:   "We received a request to reset your password. The link expires soon.",
		Action:  "Reset password",
		Link:    n.link(resetPasswordPath, token),
	})
}

// Send renders and delivers the email a MailEvent asks for.
func (n *Notifier) Send(ctx context.Context, kind service.MailKind, email, token string) error {
	switch kind {
	case service.MailKindVerification:
		return n.SendVerification(ctx, email, token)
	case service.MailKindPasswordReset:
		return n.SendPasswordReset(ctx, email, token)
	default:
		return errors.Wrapf(ErrUnknownMailKind, "%q", kind)
	}
}

func (n *Notifier) link(path, token string) string {
	return n.baseURL + path + url.PathEscape(token)
}

func (n *Notifier) send(ctx context.Context, email string, content mailContent) error {
	var html bytes.Buffer
	if err := htmlBody.Execute(&html, content); err != nil {
		return errors.Wrap(err, "failed to render email")
	}

	msg := &service.MailMessage{
		To:      email,
		Subject: content.Subject,
		Text:    content.Intro + "\n\n" + content.Action + ": " + content.Link + "\n",
		HTML:    html.String(),
	}

	if err := n.sender.Send(ctx, msg); err != nil {
		return errors.Wrapf(err, "failed to send %q email", content.Subject)
	}

	n.logger.DebugContext(ctx, "Account email sent", slog.String("subject", content.Subject))

	return nil
}
