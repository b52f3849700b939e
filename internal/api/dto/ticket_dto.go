package dto

import (
	"time"

	"github.com/feedback-hub/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    *string               `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateTicketRequest payload. Fields left out of the JSON body are not
// touched; an explicit `"assignee_id": null` clears the assignee.
type UpdateTicketRequest struct {
	Status     *domain.TicketStatus   `json:"status"`
	Priority   *domain.TicketPriority `json:"priority"`
	AssigneeID *string                `json:"assignee_id"`
}

// CreateCommentRequest payload. Internal defaults to true on the admin
// path and is ignored on the user path.
type CreateCommentRequest struct {
	Body     string `json:"body"`
	Internal *bool  `json:"internal"`
}

// CreateAttachmentRequest payload; the binary itself lives elsewhere.
type CreateAttachmentRequest struct {
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
}

// UserSummary embeds an id+name reference to a user.
type UserSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AppSummary identifies the tenant a ticket belongs to.
type AppSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TicketSummary response for list views. Reporter, assignee and app carry
// resolved display names alongside the raw ids.
type TicketSummary struct {
	ID              string                `json:"id"`
	AppID           string                `json:"app_id"`
	UserID          string                `json:"user_id"`
	Title           string                `json:"title"`
	Category        *string               `json:"category"`
	Status          domain.TicketStatus   `json:"status"`
	Priority        domain.TicketPriority `json:"priority"`
	AssigneeID      *string               `json:"assignee_id"`
	SLADeadline     *time.Time            `json:"sla_deadline"`
	Reporter        *UserSummary          `json:"reporter,omitempty"`
	Assignee        *UserSummary          `json:"assignee,omitempty"`
	App             *AppSummary           `json:"app,omitempty"`
	CommentCount    int                   `json:"comment_count"`
	AttachmentCount int                   `json:"attachment_count"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info. History is only
// populated on the admin endpoint.
type TicketDetailResponse struct {
	ID          string                  `json:"id"`
	AppID       string                  `json:"app_id"`
	UserID      string                  `json:"user_id"`
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Category    *string                 `json:"category"`
	Status      domain.TicketStatus     `json:"status"`
	Priority    domain.TicketPriority   `json:"priority"`
	AssigneeID  *string                 `json:"assignee_id"`
	SLADeadline *time.Time              `json:"sla_deadline"`
	Reporter    *UserSummary            `json:"reporter,omitempty"`
	Assignee    *UserSummary            `json:"assignee,omitempty"`
	App         *AppSummary             `json:"app,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
	Comments    []TicketCommentResponse `json:"comments"`
	Attachments []AttachmentResponse    `json:"attachments"`
	History     []TicketHistoryResponse `json:"history,omitempty"`
}

// TicketCommentResponse represents a thread entry.
type TicketCommentResponse struct {
	ID             string       `json:"id"`
	UserID         string       `json:"user_id"`
	Author         *UserSummary `json:"author,omitempty"`
	Body           string       `json:"body"`
	IsInternalNote bool         `json:"is_internal_note"`
	CreatedAt      time.Time    `json:"created_at"`
}

// TicketHistoryResponse is one audit entry. For assignee changes the
// old/new values are display names resolved from the stored ids.
type TicketHistoryResponse struct {
	ID            string    `json:"id"`
	Field         string    `json:"field"`
	OldValue      string    `json:"old_value"`
	NewValue      string    `json:"new_value"`
	ChangedBy     string    `json:"changed_by"`
	ChangedByName string    `json:"changed_by_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID        string    `json:"id"`
	FileURL   string    `json:"file_url"`
	FileName  string    `json:"file_name"`
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
}

// Pagination wraps list metadata.
type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
