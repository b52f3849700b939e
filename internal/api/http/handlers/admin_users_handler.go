package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/feedback-hub/helpdesk/internal/api/dto"
	"github.com/feedback-hub/helpdesk/internal/domain"
	"github.com/feedback-hub/helpdesk/internal/repository"
	"github.com/feedback-hub/helpdesk/internal/service"
	apperrors "github.com/feedback-hub/helpdesk/pkg/util"
)

// AdminUsersHandler manages account and tenant administration.
type AdminUsersHandler struct {
	users repository.UserRepository
	apps  *service.AppService
}

// NewAdminUsersHandler constructs handler.
func NewAdminUsersHandler(users repository.UserRepository, apps *service.AppService) *AdminUsersHandler {
	return &AdminUsersHandler{users: users, apps: apps}
}

// ListUsers GET /admin/users?role=admin,super_admin.
func (h *AdminUsersHandler) ListUsers(c *fiber.Ctx) error {
	roles := domain.AdminRoles()
	if roleStr := c.Query("role"); roleStr != "" {
		roles = nil
		for _, part := range strings.Split(roleStr, ",") {
			role := domain.UserRole(strings.TrimSpace(part))
			if role.IsValid() {
				roles = append(roles, role)
			}
		}
	}
	users, err := h.users.ListByRoles(c.Context(), roles...)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateUser PATCH /admin/users/:id adjusts role or ban state.
func (h *AdminUsersHandler) UpdateUser(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Role == nil && req.Banned == nil {
		return apperrors.NewValidationError("nothing to update", nil)
	}
	if req.Role != nil && !req.Role.IsValid() {
		return apperrors.NewValidationError("invalid role", map[string]any{"role": *req.Role})
	}

	user, err := h.users.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Banned != nil {
		user.Banned = *req.Banned
	}
	if err := h.users.Update(c.Context(), user); err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// GetApp GET /admin/apps/:id.
func (h *AdminUsersHandler) GetApp(c *fiber.Ctx) error {
	app, err := h.apps.GetApp(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appResponse(app)})
}

// UpdateAppEmailSettings PUT /admin/apps/:id/email-settings.
func (h *AdminUsersHandler) UpdateAppEmailSettings(c *fiber.Ctx) error {
	var req dto.UpdateEmailSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	app, err := h.apps.UpdateEmailSettings(c.Context(), c.Params("id"), service.EmailSettingsInput{
		EmailFrom: req.EmailFrom,
		EmailName: req.EmailName,
		SMTPHost:  req.SMTPHost,
		SMTPPort:  req.SMTPPort,
		SMTPUser:  req.SMTPUser,
		SMTPPass:  req.SMTPPass,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appResponse(app)})
}

// appResponse never echoes the SMTP password back.
func appResponse(app *domain.App) fiber.Map {
	return fiber.Map{
		"id":         app.ID,
		"name":       app.Name,
		"icon_url":   app.IconURL,
		"email_from": app.EmailFrom,
		"email_name": app.EmailName,
		"smtp_host":  app.SMTPHost,
		"smtp_port":  app.SMTPPort,
		"smtp_user":  app.SMTPUser,
		"has_push":   app.HasPush(),
		"created_at": app.CreatedAt,
		"updated_at": app.UpdatedAt,
	}
}
