package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-reporting/internal/config"
	"github.com/spec-kit/sla-reporting/internal/events"
	"github.com/spec-kit/sla-reporting/internal/mail"
)

// NotificationService reacts to report lifecycle events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.MailConfig
	post       func(ctx context.Context, url string, payload any) error
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.MailConfig) *NotificationService {
	n := &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
	n.post = func(ctx context.Context, url string, payload any) error {
		return mail.PostJSON(ctx, url, cfg.Timeout(), payload)
	}
	return n
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventReportGenerated, n.handleReportGenerated)
	n.dispatcher.Subscribe(events.EventReportDelivered, n.handleReportDelivered)
	n.dispatcher.Subscribe(events.EventReportDeliveryFailed, n.handleReportDeliveryFailed)
}

func (n *NotificationService) handleReportGenerated(_ context.Context, event events.Event) error {
	n.logger.Debug("ReportGenerated", zap.String("tenant_id", event.TenantID), zap.String("run_id", event.RunID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleReportDelivered(_ context.Context, event events.Event) error {
	n.logger.Info("ReportDelivered", zap.String("tenant_id", event.TenantID), zap.String("run_id", event.RunID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleReportDeliveryFailed(ctx context.Context, event events.Event) error {
	n.logger.Error("ReportDeliveryFailed", zap.String("tenant_id", event.TenantID), zap.String("run_id", event.RunID), zap.Any("payload", event.Payload))
	return n.sendOpsWebhook(ctx, event)
}

func (n *NotificationService) sendOpsWebhook(ctx context.Context, event events.Event) error {
	if strings.TrimSpace(n.cfg.OpsWebhookURL) == "" {
		return nil
	}
	if err := n.post(ctx, n.cfg.OpsWebhookURL, event); err != nil {
		n.logger.Warn("ops webhook failed",
			zap.String("url", n.cfg.OpsWebhookURL),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	return nil
}
