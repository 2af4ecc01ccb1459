package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-reporting/internal/config"
	"github.com/spec-kit/sla-reporting/internal/events"
)

func TestNotificationService_ForwardsDeliveryFailures(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	n := NewNotificationService(dispatcher, zap.NewNop(), config.MailConfig{OpsWebhookURL: "http://ops.invalid/hook"})
	var posted []events.Event
	n.post = func(_ context.Context, url string, payload any) error {
		assert.Equal(t, "http://ops.invalid/hook", url)
		posted = append(posted, payload.(events.Event))
		return nil
	}
	n.RegisterHandlers()

	ctx := context.Background()
	assert.NoError(t, dispatcher.Publish(ctx, events.New(events.EventReportDelivered, "acme", "r1", nil)))
	assert.NoError(t, dispatcher.Publish(ctx, events.New(events.EventReportDeliveryFailed, "acme", "r2", events.ReportDeliveryFailedPayload{Error: "550"})))

	if assert.Len(t, posted, 1) {
		assert.Equal(t, "r2", posted[0].RunID)
	}
}

func TestNotificationService_OpsWebhookError(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	n := NewNotificationService(dispatcher, zap.NewNop(), config.MailConfig{OpsWebhookURL: "http://ops.invalid/hook"})
	n.post = func(context.Context, string, any) error { return errors.New("unreachable") }
	n.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.New(events.EventReportDeliveryFailed, "acme", "r", nil))
	assert.Error(t, err)
}

func TestNotificationService_NoWebhookConfigured(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	n := NewNotificationService(dispatcher, zap.NewNop(), config.MailConfig{})
	n.post = func(context.Context, string, any) error {
		t.Fatal("unexpected post")
		return nil
	}
	n.RegisterHandlers()

	assert.NoError(t, dispatcher.Publish(context.Background(), events.New(events.EventReportDeliveryFailed, "acme", "r", nil)))
}
