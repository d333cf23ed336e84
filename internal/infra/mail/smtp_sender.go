package mail

import (
	"context"

	"storefront/config"
	"storefront/internal/domain/service"
	"storefront/internal/errors"

	gomail "github.com/wneessen/go-mail"
)

const defaultSMTPPort = 587

type smtpSender struct {
	client *gomail.Client
	from   string
}

// NewSMTPSender creates a MailSender that dials the configured SMTP server for every message.
func NewSMTPSender(cfg *config.MailConfig) (service.MailSender, error) {
	if cfg == nil || cfg.Host == "" {
		return nil, errors.New("mail.host is required for SMTP delivery")
	}
	if cfg.From == "" {
		return nil, errors.New("mail.from is required for SMTP delivery")
	}

	port := cfg.Port
	if port == 0 {
		port = defaultSMTPPort
	}

	tlsPolicy, err := parseTLSPolicy(cfg.TLSPolicy)
	if err != nil {
		return nil, err
	}

	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPolicy(tlsPolicy),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create SMTP client")
	}

	return &smtpSender{client: client, from: cfg.From}, nil
}

func (s *smtpSender) Send(ctx context.Context, msg *service.MailMessage) error {
	m := gomail.NewMsg()
	if err := m.From(s.from); err != nil {
		return errors.Wrap(err, "invalid sender address")
	}
	if err := m.To(msg.To); err != nil {
		return errors.Wrap(err, "invalid recipient address")
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return errors.Wrap(err, "failed to deliver email")
	}

	return nil
}

func parseTLSPolicy(policy string) (gomail.TLSPolicy, error) {
	switch policy {
	case "", "mandatory":
		return gomail.TLSMandatory, nil
	case "opportunistic":
		return gomail.TLSOpportunistic, nil
	case "none":
		return gomail.NoTLS, nil
	default:
		return gomail.NoTLS, errors.Errorf("unknown mail.tlsPolicy %q", policy)
	}
}
