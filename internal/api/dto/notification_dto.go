package dto

import (
	"time"

	"github.com/feedback-hub/helpdesk/internal/domain"
)

// NotificationResponse is one in-app alert.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Link      *string                 `json:"link"`
	IsRead    bool                    `json:"is_read"`
	CreatedAt time.Time               `json:"created_at"`
}

// RegisterDeviceTokenRequest payload.
type RegisterDeviceTokenRequest struct {
	Token    string  `json:"token"`
	Platform *string `json:"platform"`
}

// UnregisterDeviceTokenRequest payload.
type UnregisterDeviceTokenRequest struct {
	Token string `json:"token"`
}
