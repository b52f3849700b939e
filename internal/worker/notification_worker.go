package worker

import (
	"github.com/feedback-hub/helpdesk/internal/events"
	"github.com/feedback-hub/helpdesk/internal/service"
)

// StartNotificationWorker wires the notification handlers onto the event
// dispatcher.
func StartNotificationWorker(notificationService *service.NotificationService, dispatcher events.Dispatcher) {
	if notificationService == nil || dispatcher == nil {
		return
	}
	notificationService.RegisterHandlers(dispatcher)
}
