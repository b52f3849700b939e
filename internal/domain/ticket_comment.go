package domain

import "time"

// TicketComment is a threaded note on a ticket. Comments flagged internal
// are only ever served to admin identities.
type TicketComment struct {
	ID             string
	TicketID       string
	UserID         string
	Body           string
	IsInternalNote bool
	CreatedAt      time.Time
}
