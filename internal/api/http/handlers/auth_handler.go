package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/feedback-hub/helpdesk/internal/api/dto"
	"github.com/feedback-hub/helpdesk/internal/auth"
	"github.com/feedback-hub/helpdesk/internal/service"
	apperrors "github.com/feedback-hub/helpdesk/pkg/util"
)

// AuthHandler manages registration, login and the current-user endpoint.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	appID := ""
	if app, ok := AppFromLocals(c); ok {
		appID = app.ID
	}

	result, err := h.service.Register(c.Context(), appID, service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": authResponse(result)})
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	result, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authResponse(result)})
}

// Me GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	return c.JSON(fiber.Map{"data": userResponse(principal.User)})
}

func authResponse(result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		User:      userResponse(result.User),
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	}
}
