package domain

import "time"

// DeviceToken registers a mobile device for push delivery, scoped to the
// app the device authenticated against.
type DeviceToken struct {
	ID        string
	UserID    string
	AppID     string
	Token     string
	Platform  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
