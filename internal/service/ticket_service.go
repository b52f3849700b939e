package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/feedback-hub/helpdesk/internal/domain"
	"github.com/feedback-hub/helpdesk/internal/events"
	"github.com/feedback-hub/helpdesk/internal/repository"
	"github.com/feedback-hub/helpdesk/internal/sla"
	apperrors "github.com/feedback-hub/helpdesk/pkg/util"
)

// TicketService coordinates the ticket lifecycle: creation with balanced
// assignment and SLA stamping, audited updates, and threaded comments.
type TicketService struct {
	tickets     repository.TicketRepository
	comments    repository.TicketCommentRepository
	history     repository.TicketHistoryRepository
	attachments repository.TicketAttachmentRepository
	users       repository.UserRepository
	apps        repository.AppRepository
	balancer    *AssignmentService
	policy      *sla.Policy
	dispatcher  events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.TicketCommentRepository
	HistoryRepo    repository.TicketHistoryRepository
	AttachmentRepo repository.TicketAttachmentRepository
	UserRepo       repository.UserRepository
	AppRepo        repository.AppRepository
	Balancer       *AssignmentService
	Policy         *sla.Policy
	Dispatcher     events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		comments:    deps.CommentRepo,
		history:     deps.HistoryRepo,
		attachments: deps.AttachmentRepo,
		users:       deps.UserRepo,
		apps:        deps.AppRepo,
		balancer:    deps.Balancer,
		policy:      deps.Policy,
		dispatcher:  deps.Dispatcher,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    *string
	Priority    domain.TicketPriority
}

// TicketUpdateInput describes an admin's partial ticket update.
// AssigneeSet distinguishes "clear the assignee" from "leave it alone".
type TicketUpdateInput struct {
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	AssigneeID  *string
	AssigneeSet bool
}

// TicketDetail is a ticket with its visible thread.
type TicketDetail struct {
	Ticket      *domain.Ticket
	Comments    []domain.TicketComment
	Attachments []domain.TicketAttachment
	History     []domain.TicketHistory
}

// CreateTicket opens a ticket for the app user: priority defaults to
// medium, the SLA deadline is stamped from priority, and an assignee is
// chosen by workload.
func (s *TicketService) CreateTicket(ctx context.Context, appID, userID string, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if description == "" {
		return nil, apperrors.NewValidationError("description is required", nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.IsValid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	assigneeID, err := s.balancer.ChooseAssignee(ctx, appID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	deadline := s.policy.Deadline(priority)
	ticket := &domain.Ticket{
		AppID:       appID,
		UserID:      userID,
		Title:       title,
		Description: description,
		Category:    input.Category,
		Priority:    priority,
		Status:      domain.TicketStatusOpen,
		AssigneeID:  assigneeID,
		SLADeadline: &deadline,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	reporter, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.EventTicketCreated, events.TicketCreatedPayload{
		Ticket:   *ticket,
		Reporter: *reporter,
	})
	return ticket, nil
}

// UpdateTicket applies an admin's partial update. Every changed field gets
// an audit entry; the update and its entries commit atomically. A priority
// change recomputes the SLA deadline from the current instant.
func (s *TicketService) UpdateTicket(ctx context.Context, actorID, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	var (
		update  repository.TicketUpdate
		entries []domain.TicketHistory
	)

	if input.Status != nil && *input.Status != ticket.Status {
		if !input.Status.IsValid() {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *input.Status})
		}
		update.Status = input.Status
		entries = append(entries, domain.TicketHistory{
			TicketID:  ticketID,
			ChangedBy: actorID,
			Field:     domain.HistoryFieldStatus,
			OldValue:  string(ticket.Status),
			NewValue:  string(*input.Status),
		})
	}

	if input.Priority != nil && *input.Priority != ticket.Priority {
		if !input.Priority.IsValid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
		}
		update.Priority = input.Priority
		deadline := s.policy.Deadline(*input.Priority)
		update.SLADeadline = &deadline
		entries = append(entries, domain.TicketHistory{
			TicketID:  ticketID,
			ChangedBy: actorID,
			Field:     domain.HistoryFieldPriority,
			OldValue:  string(ticket.Priority),
			NewValue:  string(*input.Priority),
		})
	}

	if input.AssigneeSet && !sameAssignee(ticket.AssigneeID, input.AssigneeID) {
		if input.AssigneeID != nil {
			assignee, err := s.users.GetByID(ctx, *input.AssigneeID)
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			if !assignee.IsAdmin() {
				return nil, apperrors.NewValidationError("assignee must be an admin", nil)
			}
		}
		update.AssigneeID = input.AssigneeID
		update.AssigneeSet = true
		entries = append(entries, domain.TicketHistory{
			TicketID:  ticketID,
			ChangedBy: actorID,
			Field:     domain.HistoryFieldAssignee,
			OldValue:  derefOrEmpty(ticket.AssigneeID),
			NewValue:  derefOrEmpty(input.AssigneeID),
		})
	}

	if update.Empty() {
		return ticket, nil
	}

	oldStatus := ticket.Status
	updated, err := s.tickets.ApplyUpdate(ctx, ticketID, update, entries)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if update.Status != nil {
		reporter, err := s.users.GetByID(ctx, updated.UserID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		s.publish(ctx, events.EventTicketStatusChanged, events.TicketStatusChangedPayload{
			Ticket:    *updated,
			Reporter:  *reporter,
			OldStatus: oldStatus,
			NewStatus: updated.Status,
		})
	}
	return updated, nil
}

// AddComment appends a comment to the ticket thread. Internal notes are
// admin-only, never trigger notifications, and never reach the reporter.
func (s *TicketService) AddComment(ctx context.Context, author *domain.User, ticketID, body string, internal bool) (*domain.TicketComment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body is required", nil)
	}
	if internal && !author.IsAdmin() {
		return nil, apperrors.NewForbidden("internal notes are admin-only")
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !author.IsAdmin() && ticket.UserID != author.ID {
		return nil, apperrors.NewForbidden("not your ticket")
	}

	comment := &domain.TicketComment{
		TicketID:       ticket.ID,
		UserID:         author.ID,
		Body:           body,
		IsInternalNote: internal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	if !internal {
		reporter, err := s.users.GetByID(ctx, ticket.UserID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		var assignee *domain.User
		if ticket.AssigneeID != nil {
			if a, err := s.users.GetByID(ctx, *ticket.AssigneeID); err == nil {
				assignee = a
			}
		}
		s.publish(ctx, events.EventTicketCommentAdded, events.TicketCommentAddedPayload{
			Ticket:   *ticket,
			Comment:  *comment,
			Author:   *author,
			Reporter: *reporter,
			Assignee: assignee,
		})
	}
	return comment, nil
}

// GetTicketForUser fetches a ticket the user owns, with its public thread.
// Internal notes and the audit trail stay out of the user view.
func (s *TicketService) GetTicketForUser(ctx context.Context, userID, ticketID string) (*TicketDetail, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if ticket.UserID != userID {
		return nil, apperrors.NewForbidden("not your ticket")
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID, false)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketDetail{Ticket: ticket, Comments: comments, Attachments: attachments}, nil
}

// GetTicketForAdmin fetches the full ticket view: all comments including
// internal notes, plus the audit trail.
func (s *TicketService) GetTicketForAdmin(ctx context.Context, ticketID string) (*TicketDetail, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID, true)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	hist, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketDetail{Ticket: ticket, Comments: comments, Attachments: attachments, History: hist}, nil
}

// ListUserTickets returns the user's tickets within the calling app,
// newest first. Tickets the same user raised under another tenant are
// invisible here.
func (s *TicketService) ListUserTickets(ctx context.Context, appID, userID string, limit, offset int) ([]domain.Ticket, int, error) {
	items, total, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		AppID:  &appID,
		UserID: &userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return items, total, nil
}

// ListAdminTickets returns tickets matching the admin search filter.
func (s *TicketService) ListAdminTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	items, total, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return items, total, nil
}

// TicketCountsByIDs reports comment and attachment totals for a page of
// tickets in a single lookup.
func (s *TicketService) TicketCountsByIDs(ctx context.Context, ids []string) (map[string]repository.TicketCounts, error) {
	counts, err := s.tickets.CountsByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return counts, nil
}

// AddAttachment records uploaded file metadata against the ticket.
func (s *TicketService) AddAttachment(ctx context.Context, actor *domain.User, ticketID string, attachment *domain.TicketAttachment) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !actor.IsAdmin() && ticket.UserID != actor.ID {
		return apperrors.NewForbidden("not your ticket")
	}
	attachment.TicketID = ticket.ID
	return apperrors.MapError(s.attachments.Create(ctx, attachment))
}

// DeleteTicket removes the ticket and, via cascade, its thread.
func (s *TicketService) DeleteTicket(ctx context.Context, ticketID string) error {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return apperrors.MapError(err)
	}
	return apperrors.MapError(s.tickets.Delete(ctx, ticketID))
}

// DeleteComment removes a single comment.
func (s *TicketService) DeleteComment(ctx context.Context, commentID string) error {
	return apperrors.MapError(s.comments.Delete(ctx, commentID))
}

// TicketNames carries the display names a ticket view embeds: reporters,
// assignees, comment authors, history actors, and the owning apps.
type TicketNames struct {
	Users map[string]string
	Apps  map[string]string
}

// ResolveListNames batch-resolves the names a page of tickets references.
func (s *TicketService) ResolveListNames(ctx context.Context, tickets []domain.Ticket) (*TicketNames, error) {
	userIDs := make(map[string]struct{})
	appIDs := make(map[string]struct{})
	for i := range tickets {
		collectTicketIDs(&tickets[i], userIDs, appIDs)
	}
	return s.resolveNames(ctx, userIDs, appIDs)
}

// ResolveDetailNames resolves every name a full ticket view references,
// including comment authors and the actors recorded in audit entries.
func (s *TicketService) ResolveDetailNames(ctx context.Context, detail *TicketDetail) (*TicketNames, error) {
	userIDs := make(map[string]struct{})
	appIDs := make(map[string]struct{})
	collectTicketIDs(detail.Ticket, userIDs, appIDs)
	for _, comment := range detail.Comments {
		userIDs[comment.UserID] = struct{}{}
	}
	for _, entry := range detail.History {
		userIDs[entry.ChangedBy] = struct{}{}
		if entry.Field == domain.HistoryFieldAssignee {
			if entry.OldValue != "" {
				userIDs[entry.OldValue] = struct{}{}
			}
			if entry.NewValue != "" {
				userIDs[entry.NewValue] = struct{}{}
			}
		}
	}
	return s.resolveNames(ctx, userIDs, appIDs)
}

func collectTicketIDs(ticket *domain.Ticket, userIDs, appIDs map[string]struct{}) {
	userIDs[ticket.UserID] = struct{}{}
	if ticket.AssigneeID != nil {
		userIDs[*ticket.AssigneeID] = struct{}{}
	}
	appIDs[ticket.AppID] = struct{}{}
}

func (s *TicketService) resolveNames(ctx context.Context, userIDs, appIDs map[string]struct{}) (*TicketNames, error) {
	names := &TicketNames{Users: map[string]string{}, Apps: map[string]string{}}
	if len(userIDs) > 0 {
		ids := make([]string, 0, len(userIDs))
		for id := range userIDs {
			ids = append(ids, id)
		}
		users, err := s.users.GetNamesByIDs(ctx, ids)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		names.Users = users
	}
	if len(appIDs) > 0 && s.apps != nil {
		ids := make([]string, 0, len(appIDs))
		for id := range appIDs {
			ids = append(ids, id)
		}
		apps, err := s.apps.GetNamesByIDs(ctx, ids)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		names.Apps = apps
	}
	return names, nil
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
