package dto

import (
	"time"

	"github.com/feedback-hub/helpdesk/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      domain.UserRole `json:"role"`
	AvatarURL *string         `json:"avatar_url"`
	Banned    bool            `json:"banned"`
	CreatedAt time.Time       `json:"created_at"`
}

// AuthResponse is returned from register and login.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// UpdateEmailSettingsRequest carries a tenant's sender configuration.
type UpdateEmailSettingsRequest struct {
	EmailFrom *string `json:"email_from"`
	EmailName *string `json:"email_name"`
	SMTPHost  *string `json:"smtp_host"`
	SMTPPort  *int    `json:"smtp_port"`
	SMTPUser  *string `json:"smtp_user"`
	SMTPPass  *string `json:"smtp_pass"`
}

// UpdateUserRequest is the admin-side account mutation.
type UpdateUserRequest struct {
	Role   *domain.UserRole `json:"role"`
	Banned *bool            `json:"banned"`
}
