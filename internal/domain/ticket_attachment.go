package domain

import "time"

// TicketAttachment stores metadata for a file associated with a ticket.
// The binary itself is managed by the upload collaborator; rows are
// immutable and removed only by cascading ticket deletion.
type TicketAttachment struct {
	ID        string
	TicketID  string
	FileURL   string
	FileName  string
	FileSize  int64
	CreatedAt time.Time
}
