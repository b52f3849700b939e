package domain

import "time"

// NotificationType tags an in-app alert.
type NotificationType string

const (
	NotificationTypeNewTicket   NotificationType = "new_ticket"
	NotificationTypeNewFeedback NotificationType = "new_feedback"
)

// Notification is a persisted in-app alert. The row is the durable record;
// live delivery over the fan-out channel is best-effort on top of it.
type Notification struct {
	ID        string
	UserID    string
	Type      NotificationType
	Title     string
	Message   string
	Link      *string
	IsRead    bool
	CreatedAt time.Time
}
