package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/feedback-hub/helpdesk/internal/domain"
	"github.com/feedback-hub/helpdesk/internal/repository"
)

// AssignmentService picks an assignee for new tickets by balancing active
// workload across the app's admin pool.
type AssignmentService struct {
	apps    repository.AppRepository
	users   repository.UserRepository
	tickets repository.TicketRepository
	logger  *zap.Logger
}

// NewAssignmentService constructs the balancer.
func NewAssignmentService(apps repository.AppRepository, users repository.UserRepository, tickets repository.TicketRepository, logger *zap.Logger) *AssignmentService {
	return &AssignmentService{apps: apps, users: users, tickets: tickets, logger: logger}
}

// ChooseAssignee returns the admin with the fewest open or in-progress
// tickets, preferring admins enrolled for the app and falling back to the
// full admin pool. Ties go to the earliest-created candidate. Returns nil
// when no admins exist at all; the ticket then stays unassigned.
func (s *AssignmentService) ChooseAssignee(ctx context.Context, appID string) (*string, error) {
	candidates, err := s.apps.ListAdminIDs(ctx, appID)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		admins, err := s.users.ListByRoles(ctx, domain.AdminRoles()...)
		if err != nil {
			return nil, err
		}
		for _, admin := range admins {
			candidates = append(candidates, admin.ID)
		}
	}

	if len(candidates) == 0 {
		s.logger.Warn("no admins available for assignment", zap.String("appId", appID))
		return nil, nil
	}

	var (
		chosen    string
		bestCount int
		found     bool
	)
	for _, id := range candidates {
		count, err := s.tickets.CountActiveByAssignee(ctx, id)
		if err != nil {
			return nil, err
		}
		// Strictly lower only: with equal load the earlier candidate wins,
		// keeping assignment deterministic.
		if !found || count < bestCount {
			chosen = id
			bestCount = count
			found = true
		}
	}

	s.logger.Debug("assignee chosen",
		zap.String("appId", appID),
		zap.String("assigneeId", chosen),
		zap.Int("activeTickets", bestCount))
	return &chosen, nil
}
