package events

import (
	"time"

	"github.com/feedback-hub/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketCommentAdded  EventType = "ticket_comment_added"
	EventFeedbackCreated     EventType = "feedback_created"
	EventFeedbackReplyAdded  EventType = "feedback_reply_added"
	EventUserRegistered      EventType = "user_registered"
)

// Event represents a domain event emitted by services. Payloads carry the
// already-loaded entities so notification handlers do not re-query the
// primary path's data.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Ticket   domain.Ticket `json:"ticket"`
	Reporter domain.User   `json:"reporter"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	Ticket    domain.Ticket       `json:"ticket"`
	Reporter  domain.User         `json:"reporter"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketCommentAddedPayload payload. Assignee is nil for unassigned
// tickets. Only public comments produce this event.
type TicketCommentAddedPayload struct {
	Ticket   domain.Ticket        `json:"ticket"`
	Comment  domain.TicketComment `json:"comment"`
	Author   domain.User          `json:"author"`
	Reporter domain.User          `json:"reporter"`
	Assignee *domain.User         `json:"assignee,omitempty"`
}

// FeedbackCreatedPayload payload.
type FeedbackCreatedPayload struct {
	Feedback domain.Feedback `json:"feedback"`
	Author   domain.User     `json:"author"`
}

// FeedbackReplyAddedPayload payload.
type FeedbackReplyAddedPayload struct {
	Feedback domain.Feedback      `json:"feedback"`
	Reply    domain.FeedbackReply `json:"reply"`
	Replier  domain.User          `json:"replier"`
	Author   domain.User          `json:"author"`
}

// UserRegisteredPayload payload. AppID is empty when registration happened
// outside any tenant context.
type UserRegisteredPayload struct {
	User  domain.User `json:"user"`
	AppID string      `json:"app_id,omitempty"`
}
