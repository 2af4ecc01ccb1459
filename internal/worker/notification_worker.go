package worker

import (
	"github.com/spec-kit/sla-reporting/internal/service"
)

// StartNotificationWorker registers report event handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
