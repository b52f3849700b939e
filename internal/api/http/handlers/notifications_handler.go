package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/feedback-hub/helpdesk/internal/api/dto"
	"github.com/feedback-hub/helpdesk/internal/auth"
	"github.com/feedback-hub/helpdesk/internal/service"
	apperrors "github.com/feedback-hub/helpdesk/pkg/util"
)

// NotificationsHandler serves in-app alerts and device registrations.
type NotificationsHandler struct {
	notifications *service.NotificationService
	devices       *service.DeviceTokenService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService, devices *service.DeviceTokenService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications, devices: devices}
}

// List GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	limit, offset := parsePagination(c)

	items, total, err := h.notifications.List(c.Context(), principal.User.ID, limit, offset)
	if err != nil {
		return err
	}
	out := make([]dto.NotificationResponse, 0, len(items))
	for i := range items {
		out = append(out, notificationResponse(&items[i]))
	}
	return c.JSON(fiber.Map{
		"data":       out,
		"pagination": dto.Pagination{Total: total, Limit: limit, Offset: offset},
	})
}

// UnreadCount GET /notifications/unread-count.
func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	count, err := h.notifications.UnreadCount(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"count": count}})
}

// MarkRead PATCH /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.notifications.MarkRead(c.Context(), c.Params("id"), principal.User.ID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// MarkAllRead POST /notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.notifications.MarkAllRead(c.Context(), principal.User.ID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RegisterDevice POST /device-tokens.
func (h *NotificationsHandler) RegisterDevice(c *fiber.Ctx) error {
	principal, app, err := requireAppUser(c)
	if err != nil {
		return err
	}
	var req dto.RegisterDeviceTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	record, err := h.devices.Register(c.Context(), principal.User.ID, app.ID, req.Token, req.Platform)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"id": record.ID}})
}

// UnregisterDevice DELETE /device-tokens.
func (h *NotificationsHandler) UnregisterDevice(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UnregisterDeviceTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" {
		return apperrors.NewValidationError("token required", nil)
	}
	if err := h.devices.Unregister(c.Context(), principal.User.ID, req.Token); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
