// Package sla computes target resolution deadlines from ticket priority.
package sla

import (
	"time"

	"github.com/feedback-hub/helpdesk/internal/config"
	"github.com/feedback-hub/helpdesk/internal/domain"
)

// Policy maps each ticket priority to a deadline offset. The mapping is
// total over the four priorities; callers must reject unknown priorities
// before consulting the policy.
type Policy struct {
	hours map[domain.TicketPriority]int
}

// NewPolicy builds a policy from configuration.
func NewPolicy(cfg config.SLAConfig) *Policy {
	return &Policy{
		hours: map[domain.TicketPriority]int{
			domain.TicketPriorityCritical: cfg.CriticalHours,
			domain.TicketPriorityHigh:     cfg.HighHours,
			domain.TicketPriorityMedium:   cfg.MediumHours,
			domain.TicketPriorityLow:      cfg.LowHours,
		},
	}
}

// Deadline returns the SLA deadline for the given priority, relative to
// the current instant.
func (p *Policy) Deadline(priority domain.TicketPriority) time.Time {
	return time.Now().Add(time.Duration(p.hours[priority]) * time.Hour)
}

// Hours returns the configured offset for a priority.
func (p *Policy) Hours(priority domain.TicketPriority) int {
	return p.hours[priority]
}
