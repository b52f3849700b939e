package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/feedback-hub/helpdesk/internal/api/http/handlers"
	"github.com/feedback-hub/helpdesk/internal/observability"
	"github.com/feedback-hub/helpdesk/internal/repository"
	apperrors "github.com/feedback-hub/helpdesk/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				}
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

// APIKeyMiddleware resolves the tenant app from the X-API-Key header and
// stores it on the request context.
type APIKeyMiddleware struct {
	apps repository.AppRepository
}

// NewAPIKeyMiddleware constructs middleware.
func NewAPIKeyMiddleware(apps repository.AppRepository) *APIKeyMiddleware {
	return &APIKeyMiddleware{apps: apps}
}

// Handle enforces a valid API key on app-scoped routes.
func (m *APIKeyMiddleware) Handle(c *fiber.Ctx) error {
	key := c.Get("X-API-Key")
	if key == "" {
		return apperrors.NewUnauthorized("missing api key")
	}
	app, err := m.apps.GetByAPIKey(c.Context(), key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("invalid api key")
		}
		return apperrors.MapError(err)
	}
	c.Locals(handlers.AppLocalsKey, app)
	return c.Next()
}
