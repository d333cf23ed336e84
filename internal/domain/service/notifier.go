package service

import "context"

// Notifier delivers verification and password reset links to an account's email.
type Notifier interface {
	SendVerification(ctx context.Context, email, token string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

// MailKind identifies which account email a MailEvent asks for.
type MailKind string

const (
	MailKindVerification  MailKind = "verification"
	MailKindPasswordReset MailKind = "password_reset"
)

// MailMessage is a rendered email ready for delivery.
type MailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// MailSender delivers a rendered email.
type MailSender interface {
	Send(ctx context.Context, msg *MailMessage) error
}
