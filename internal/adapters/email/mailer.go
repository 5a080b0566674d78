package email

import (
	"errors"
	"log/slog"

	"teamcalendar/internal/domain"
)

// Supported values of MailerConfig.Provider.
const (
	ProviderSES  = "ses"
	ProviderNoop = "noop"
)

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	InsecureSkipVerify bool
}

// MailerConfig holds configuration for creating a mailer.
type MailerConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
}

// NewMailer creates a mailer from config. An empty or unknown provider falls back to the no-op mailer
// so a missing email setup never blocks scheduling.
func NewMailer(config MailerConfig, log *slog.Logger) (domain.Mailer, error) {
	switch config.Provider {
	case ProviderSES:
		if config.FromAddress == "" {
			return nil, errors.New("ses mailer: from address is required")
		}
		return newSESMailer(config, log), nil
	case ProviderNoop, "":
		return &noopMailer{log: log}, nil
	default:
		log.Warn("unknown email provider, using noop", slog.String("provider", config.Provider))
		return &noopMailer{log: log}, nil
	}
}

type noopMailer struct {
	log *slog.Logger
}

func (n *noopMailer) Send(to, subject, html, text string) error {
	n.log.Debug("email would be sent (noop)", slog.String("to", to), slog.String("subject", subject))
	return nil
}
