package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/service"
)

// StartNotificationWorker registers notification handlers on the async
// dispatcher and returns a stop function that drains pending mail.
func StartNotificationWorker(dispatcher *events.AsyncDispatcher, notificationService *service.NotificationService, logger *zap.Logger) func() {
	if dispatcher == nil || notificationService == nil {
		return func() {}
	}
	notificationService.RegisterHandlers()
	logger.Info("notification worker started")
	return func() {
		dispatcher.Close()
		logger.Info("notification worker stopped")
	}
}
