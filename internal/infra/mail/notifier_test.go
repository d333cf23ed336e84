package mail

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"storefront/config"
	"storefront/internal/domain/service"
	"storefront/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	messages []*service.MailMessage
	err      error
}

func (s *recordingSender) Send(_ context.Context, msg *service.MailMessage) error {
	s.messages = append(s.messages, msg)

	return s.err
}

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifier_Links(t *testing.T) {
	sender := &recordingSender{}
	notifier := NewNotifier(sender, "https://shop.example.com/", newDiscardLogger())

	require.NoError(t, notifier.SendVerification(context.Background(), "a@x.com", "abc_-123"))
	require.NoError(t, notifier.SendPasswordReset(context.Background(), "a@x.com", "reset-tok"))
	require.Len(t, sender.messages, 2)

	verification := sender.messages[0]
	assert.Equal(t, "a@x.com", verification.To)
	assert.Contains(t, verification.Text, "https://shop.example.com/users/verify-email/abc_-123")
	assert.Contains(t, verification.HTML, `href="https://shop.example.com/users/verify-email/abc_-123"`)

	reset := sender.messages[1]
	assert.Contains(t, reset.Text, "https://shop.example.com/users/reset-password/reset-tok")
	assert.NotEqual(t, verification.Subject, reset.Subject)
}

func TestNotifier_Send(t *testing.T) {
	sender := &recordingSender{}
	notifier := NewNotifier(sender, "http://localhost:8080", newDiscardLogger())

	require.NoError(t, notifier.Send(context.Background(), service.MailKindPasswordReset, "a@x.com", "t"))
	assert.Contains(t, sender.messages[0].Text, "/users/reset-password/t")

	assert.Error(t, notifier.Send(context.Background(), service.MailKind("welcome"), "a@x.com", "t"))
}

func TestNotifier_SenderError(t *testing.T) {
	sendErr := errors.New("connection refused")
	notifier := NewNotifier(&recordingSender{err: sendErr}, "http://localhost", newDiscardLogger())

	err := notifier.SendVerification(context.Background(), "a@x.com", "t")
	assert.ErrorIs(t, err, sendErr)
}

func TestNewSMTPSender(t *testing.T) {
	_, err := NewSMTPSender(&config.MailConfig{})
	assert.Error(t, err)

	_, err = NewSMTPSender(&config.MailConfig{Host: "smtp.example.com"})
	assert.Error(t, err, "from is required")

	_, err = NewSMTPSender(&config.MailConfig{Host: "smtp.example.com", From: "no-reply@example.com", TLSPolicy: "sometimes"})
	assert.Error(t, err)

	sender, err := NewSMTPSender(&config.MailConfig{
		Host:      "smtp.example.com",
		Port:      2525,
		Username:  "user",
		Password:  "secret",
		From:      "no-reply@example.com",
		TLSPolicy: "opportunistic",
	})
	require.NoError(t, err)
	assert.NotNil(t, sender)
}
