package domain

import "time"

// History field names recorded on ticket updates.
const (
	HistoryFieldStatus   = "status"
	HistoryFieldPriority = "priority"
	HistoryFieldAssignee = "assignee"
)

// TicketHistory is an immutable audit record of a single field change.
// Assignee entries store user ids; display names are resolved at read time.
type TicketHistory struct {
	ID        string
	TicketID  string
	ChangedBy string
	Field     string
	OldValue  string
	NewValue  string
	CreatedAt time.Time
}
