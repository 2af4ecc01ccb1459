// Package mail delivers rendered reports over SMTP, a webhook, or the log.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-reporting/internal/config"
)

// Message is a rendered document addressed to recipients.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Mailer sends a message through one transport.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// ErrNoRecipients is returned when a message has no addresses.
var ErrNoRecipients = errors.New("message has no recipients")

// TransientError marks a failure that may succeed on retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// New builds the mailer selected by cfg.Transport.
func New(cfg config.MailConfig, logger *zap.Logger) (Mailer, error) {
	switch cfg.Transport {
	case "smtp":
		if strings.TrimSpace(cfg.SMTPHost) == "" {
			return nil, errors.New("MAIL_SMTP_HOST required for smtp transport")
		}
		return NewSMTPMailer(cfg), nil
	case "webhook":
		if strings.TrimSpace(cfg.WebhookURL) == "" {
			return nil, errors.New("MAIL_WEBHOOK_URL required for webhook transport")
		}
		return NewWebhookMailer(cfg.WebhookURL, cfg.Timeout()), nil
	case "log", "":
		return NewLogMailer(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}
}

func validate(msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	return nil
}
