package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// WebhookMailer posts messages as JSON to an HTTP mail gateway.
type WebhookMailer struct {
	url     string
	timeout time.Duration
}

// NewWebhookMailer returns a mailer posting to url.
func NewWebhookMailer(url string, timeout time.Duration) *WebhookMailer {
	return &WebhookMailer{url: url, timeout: timeout}
}

type webhookPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

func (m *WebhookMailer) Name() string { return "webhook" }

func (m *WebhookMailer) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	return PostJSON(ctx, m.url, m.timeout, webhookPayload{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
}

// PostJSON posts payload to url. Network failures, 429 and 5xx responses are transient.
func PostJSON(ctx context.Context, url string, timeout time.Duration, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout || timeout <= 0 {
			timeout = remaining
		}
	}

	agent := fiber.Post(url)
	if err := agent.Parse(); err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	agent.JSON(payload)
	if timeout > 0 {
		agent.Timeout(timeout)
	}
	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return Transient(fmt.Errorf("post %s: %w", url, errs[0]))
	}
	if status == fiber.StatusTooManyRequests || status >= 500 {
		return Transient(fmt.Errorf("post %s: status %d", url, status))
	}
	if status >= 300 {
		return fmt.Errorf("post %s: status %d: %s", url, status, strings.TrimSpace(string(body)))
	}
	return nil
}
