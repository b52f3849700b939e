package dto

import (
	"encoding/json"
	"time"

	"github.com/feedback-hub/helpdesk/internal/domain"
)

// CreateFeedbackRequest payload. Rating is kept as a raw JSON number so
// fractional values like 4.5 can be rejected instead of silently truncated.
type CreateFeedbackRequest struct {
	Rating   json.Number             `json:"rating"`
	Category domain.FeedbackCategory `json:"category"`
	Comment  *string                 `json:"comment"`
}

// CreateReplyRequest payload.
type CreateReplyRequest struct {
	Body string `json:"body"`
}

// FeedbackSummary response for list views.
type FeedbackSummary struct {
	ID         string                  `json:"id"`
	AppID      string                  `json:"app_id"`
	UserID     string                  `json:"user_id"`
	Rating     int                     `json:"rating"`
	Category   domain.FeedbackCategory `json:"category"`
	Comment    *string                 `json:"comment"`
	ReplyCount int                     `json:"reply_count"`
	CreatedAt  time.Time               `json:"created_at"`
}

// FeedbackDetailResponse includes the reply thread.
type FeedbackDetailResponse struct {
	ID        string                  `json:"id"`
	AppID     string                  `json:"app_id"`
	UserID    string                  `json:"user_id"`
	Rating    int                     `json:"rating"`
	Category  domain.FeedbackCategory `json:"category"`
	Comment   *string                 `json:"comment"`
	CreatedAt time.Time               `json:"created_at"`
	Replies   []FeedbackReplyResponse `json:"replies"`
}

// FeedbackReplyResponse is one admin reply.
type FeedbackReplyResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
