package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/feedback-hub/helpdesk/internal/api/dto"
	"github.com/feedback-hub/helpdesk/internal/auth"
	"github.com/feedback-hub/helpdesk/internal/domain"
	"github.com/feedback-hub/helpdesk/internal/repository"
	"github.com/feedback-hub/helpdesk/internal/service"
	apperrors "github.com/feedback-hub/helpdesk/pkg/util"
)

// AdminTicketsHandler manages the admin-side ticket endpoints.
type AdminTicketsHandler struct {
	service *service.TicketService
}

// NewAdminTicketsHandler constructs handler.
func NewAdminTicketsHandler(ticketService *service.TicketService) *AdminTicketsHandler {
	return &AdminTicketsHandler{service: ticketService}
}

// ListTickets GET /admin/tickets.
func (h *AdminTicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := parseAdminTicketQuery(c)
	tickets, total, err := h.service.ListAdminTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	items, err := ticketPage(c, h.service, tickets)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data":       items,
		"pagination": dto.Pagination{Total: total, Limit: filter.Limit, Offset: filter.Offset},
	})
}

// GetTicket GET /admin/tickets/:id returns the full view including
// internal notes and the audit trail.
func (h *AdminTicketsHandler) GetTicket(c *fiber.Ctx) error {
	detail, err := h.service.GetTicketForAdmin(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	names, err := h.service.ResolveDetailNames(c.Context(), detail)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail, names)})
}

// UpdateTicket PATCH /admin/tickets/:id.
func (h *AdminTicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketUpdateInput{
		Status:     req.Status,
		Priority:   req.Priority,
		AssigneeID: req.AssigneeID,
	}
	// A missing assignee_id key means "leave it"; an explicit null means
	// "clear it". The struct alone cannot tell those apart.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &raw); err == nil {
		_, input.AssigneeSet = raw["assignee_id"]
	}

	ticket, err := h.service.UpdateTicket(c.Context(), principal.User.ID, c.Params("id"), input)
	if err != nil {
		return err
	}
	items, err := ticketPage(c, h.service, []domain.Ticket{*ticket})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": items[0]})
}

// AddComment POST /admin/tickets/:id/comments. Admin comments default to
// internal; pass "internal": false to post publicly.
func (h *AdminTicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	internal := true
	if req.Internal != nil {
		internal = *req.Internal
	}
	comment, err := h.service.AddComment(c.Context(), principal.User, c.Params("id"), req.Body, internal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment, authorNames(principal.User))})
}

// DeleteComment DELETE /admin/tickets/:id/comments/:commentId.
func (h *AdminTicketsHandler) DeleteComment(c *fiber.Ctx) error {
	if err := h.service.DeleteComment(c.Context(), c.Params("commentId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeleteTicket DELETE /admin/tickets/:id.
func (h *AdminTicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.service.DeleteTicket(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseAdminTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if appID := c.Query("app_id"); appID != "" {
		filter.AppID = &appID
	}
	if userID := c.Query("user_id"); userID != "" {
		filter.UserID = &userID
	}
	if assigneeID := c.Query("assignee_id"); assigneeID != "" {
		filter.AssigneeID = &assigneeID
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			status := domain.TicketStatus(strings.TrimSpace(part))
			if status.IsValid() {
				filter.Statuses = append(filter.Statuses, status)
			}
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			priority := domain.TicketPriority(strings.TrimSpace(part))
			if priority.IsValid() {
				filter.Priorities = append(filter.Priorities, priority)
			}
		}
	}
	filter.Limit, filter.Offset = parsePagination(c)
	return filter
}
