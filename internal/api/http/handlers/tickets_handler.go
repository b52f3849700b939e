package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/feedback-hub/helpdesk/internal/api/dto"
	"github.com/feedback-hub/helpdesk/internal/auth"
	"github.com/feedback-hub/helpdesk/internal/domain"
	"github.com/feedback-hub/helpdesk/internal/repository"
	"github.com/feedback-hub/helpdesk/internal/service"
	apperrors "github.com/feedback-hub/helpdesk/pkg/util"
)

const defaultPageSize = 20

// TicketsHandler manages end-user ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, app, err := requireAppUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.Context(), app.ID, principal.User.ID, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	names, err := h.service.ResolveListNames(c.Context(), []domain.Ticket{*ticket})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket, repository.TicketCounts{}, names)})
}

// ListTickets GET /tickets. Scoped to the calling app: the same account's
// tickets under another tenant never appear here.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, app, err := requireAppUser(c)
	if err != nil {
		return err
	}
	limit, offset := parsePagination(c)

	tickets, total, err := h.service.ListUserTickets(c.Context(), app.ID, principal.User.ID, limit, offset)
	if err != nil {
		return err
	}
	items, err := ticketPage(c, h.service, tickets)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data":       items,
		"pagination": dto.Pagination{Total: total, Limit: limit, Offset: offset},
	})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, _, err := requireAppUser(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetTicketForUser(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	names, err := h.service.ResolveDetailNames(c.Context(), detail)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail, names)})
}

// AddComment POST /tickets/:id/comments. User comments are always public.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, _, err := requireAppUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	comment, err := h.service.AddComment(c.Context(), principal.User, c.Params("id"), req.Body, false)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment, authorNames(principal.User))})
}

// AddAttachment POST /tickets/:id/attachments.
func (h *TicketsHandler) AddAttachment(c *fiber.Ctx) error {
	principal, _, err := requireAppUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateAttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.FileURL == "" || req.FileName == "" {
		return apperrors.NewValidationError("file_url and file_name required", nil)
	}

	attachment := &domain.TicketAttachment{
		FileURL:  req.FileURL,
		FileName: req.FileName,
		FileSize: req.FileSize,
	}
	if err := h.service.AddAttachment(c.Context(), principal.User, c.Params("id"), attachment); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(attachment)})
}

// ticketPage renders a page of tickets with batched counts and names,
// one lookup each for the whole page.
func ticketPage(c *fiber.Ctx, svc *service.TicketService, tickets []domain.Ticket) ([]dto.TicketSummary, error) {
	ids := make([]string, 0, len(tickets))
	for i := range tickets {
		ids = append(ids, tickets[i].ID)
	}
	counts, err := svc.TicketCountsByIDs(c.Context(), ids)
	if err != nil {
		return nil, err
	}
	names, err := svc.ResolveListNames(c.Context(), tickets)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i], counts[tickets[i].ID], names))
	}
	return items, nil
}

func requireAppUser(c *fiber.Ctx) (*auth.Principal, *domain.App, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, nil, apperrors.NewUnauthorized("user required")
	}
	app, ok := AppFromLocals(c)
	if !ok {
		return nil, nil, apperrors.NewUnauthorized("app context required")
	}
	return principal, app, nil
}

func parsePagination(c *fiber.Ctx) (limit, offset int) {
	limit = defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
