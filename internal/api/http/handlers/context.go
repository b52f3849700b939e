package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/feedback-hub/helpdesk/internal/domain"
)

// AppLocalsKey is where the API key middleware parks the resolved tenant.
const AppLocalsKey = "tenant_app"

// AppFromLocals retrieves the tenant resolved by the API key middleware.
func AppFromLocals(c *fiber.Ctx) (*domain.App, bool) {
	val := c.Locals(AppLocalsKey)
	if val == nil {
		return nil, false
	}
	app, ok := val.(*domain.App)
	return app, ok
}
