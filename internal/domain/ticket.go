package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// IsValid reports whether the status is one of the known values.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// IsValid reports whether the priority is one of the known values.
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests submitted by app users.
// Closed tickets are not immutable; a later update may reopen them.
type Ticket struct {
	ID          string
	AppID       string
	UserID      string
	Title       string
	Description string
	Category    *string
	Priority    TicketPriority
	Status      TicketStatus
	AssigneeID  *string
	SLADeadline *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsActive reports whether the ticket counts toward an assignee's workload.
func (t *Ticket) IsActive() bool {
	return t.Status == TicketStatusOpen || t.Status == TicketStatusInProgress
}
