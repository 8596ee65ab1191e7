// Package notify delivers account mail such as password reset links.
package notify

import (
	"context"
	"fmt"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/config"
	"github.com/prn-tf/tradehub/internal/service"
)

const sendTimeout = 10 * time.Second

// resetMessage renders the subject and body of a password reset mail.
func resetMessage(name, link string) (subject, text string) {
	if name == "" {
		name = "there"
	}
	subject = "Reset your TradeHub password"
	text = fmt.Sprintf(
		"Hi %s,\n\nUse the link below to choose a new password. It expires in one hour.\n\n%s\n\nIf you did not ask for this, ignore this mail.\n",
		name, link,
	)
	return subject, text
}

// MailgunMailer sends mail through the Mailgun API.
type MailgunMailer struct {
	client   *mg.MailgunImpl
	sender   string
	resetURL string
	logger   zerolog.Logger
}

// NewMailgunMailer creates a MailgunMailer for the configured domain.
func NewMailgunMailer(cfg config.MailConfig, logger zerolog.Logger) *MailgunMailer {
	return &MailgunMailer{
		client:   mg.NewMailgun(cfg.Domain, cfg.APIKey),
		sender:   cfg.Sender,
		resetURL: cfg.ResetURL,
		logger:   logger.With().Str("component", "mailgun").Logger(),
	}
}

// SendPasswordReset mails the reset link to to.
func (m *MailgunMailer) SendPasswordReset(ctx context.Context, to, name, token string) error {
	subject, text := resetMessage(name, m.resetURL+token)
	msg := m.client.NewMessage(m.sender, subject, text, to)

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, id, err := m.client.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send reset mail: %w", err)
	}
	m.logger.Info().Str("message_id", id).Msg("password reset mail sent")
	return nil
}

// LogMailer writes mail to the log. It is meant for development only.
type LogMailer struct {
	resetURL string
	logger   zerolog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(resetURL string, logger zerolog.Logger) *LogMailer {
	return &LogMailer{
		resetURL: resetURL,
		logger:   logger.With().Str("component", "log_mailer").Logger(),
	}
}

// SendPasswordReset logs the reset link.
func (m *LogMailer) SendPasswordReset(_ context.Context, to, name, token string) error {
	subject, _ := resetMessage(name, "")
	m.logger.Info().
		Str("to", to).
		Str("subject", subject).
		Str("link", m.resetURL+token).
		Msg("mail not sent, development mailer")
	return nil
}

// New returns the mailer for cfg.Provider.
func New(cfg config.MailConfig, logger zerolog.Logger) (service.Mailer, error) {
	switch cfg.Provider {
	case "", "log":
		return NewLogMailer(cfg.ResetURL, logger), nil
	case "mailgun":
		return NewMailgunMailer(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

var (
	_ service.Mailer = (*MailgunMailer)(nil)
	_ service.Mailer = (*LogMailer)(nil)
)
