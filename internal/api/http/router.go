package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/feedback-hub/helpdesk/internal/api/http/handlers"
	"github.com/feedback-hub/helpdesk/internal/auth"
	"github.com/feedback-hub/helpdesk/internal/ws"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Tickets       *handlers.TicketsHandler
	Feedback      *handlers.FeedbackHandler
	Notifications *handlers.NotificationsHandler
	AdminTickets  *handlers.AdminTicketsHandler
	AdminFeedback *handlers.AdminFeedbackHandler
	AdminUsers    *handlers.AdminUsersHandler

	APIKeyMiddleware *APIKeyMiddleware
	AuthMiddleware   *auth.AuthMiddleware
	WS               *ws.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// Tenant-scoped surface. Every route below requires a valid app key.
	api := app.Group("/api/v1", cfg.APIKeyMiddleware.Handle)

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireUser(), cfg.Auth.Me)

	user := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireUser())

	user.Post("/tickets", cfg.Tickets.CreateTicket)
	user.Get("/tickets", cfg.Tickets.ListTickets)
	user.Get("/tickets/:id", cfg.Tickets.GetTicket)
	user.Post("/tickets/:id/comments", cfg.Tickets.AddComment)
	user.Post("/tickets/:id/attachments", cfg.Tickets.AddAttachment)

	user.Post("/feedback", cfg.Feedback.CreateFeedback)
	user.Get("/feedback", cfg.Feedback.ListFeedback)
	user.Get("/feedback/:id", cfg.Feedback.GetFeedback)

	user.Get("/notifications", cfg.Notifications.List)
	user.Get("/notifications/unread-count", cfg.Notifications.UnreadCount)
	user.Patch("/notifications/:id/read", cfg.Notifications.MarkRead)
	user.Post("/notifications/read-all", cfg.Notifications.MarkAllRead)

	user.Post("/device-tokens", cfg.Notifications.RegisterDevice)
	user.Delete("/device-tokens", cfg.Notifications.UnregisterDevice)

	// Admin surface authenticates by bearer token alone, no app key:
	// admins operate across tenants.
	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())

	admin.Get("/tickets", cfg.AdminTickets.ListTickets)
	admin.Get("/tickets/:id", cfg.AdminTickets.GetTicket)
	admin.Patch("/tickets/:id", cfg.AdminTickets.UpdateTicket)
	admin.Delete("/tickets/:id", cfg.AdminTickets.DeleteTicket)
	admin.Post("/tickets/:id/comments", cfg.AdminTickets.AddComment)
	admin.Delete("/tickets/:id/comments/:commentId", cfg.AdminTickets.DeleteComment)

	admin.Get("/feedback", cfg.AdminFeedback.ListFeedback)
	admin.Get("/feedback/:id", cfg.AdminFeedback.GetFeedback)
	admin.Delete("/feedback/:id", cfg.AdminFeedback.DeleteFeedback)
	admin.Post("/feedback/:id/replies", cfg.AdminFeedback.AddReply)
	admin.Delete("/feedback/:id/replies/:replyId", cfg.AdminFeedback.DeleteReply)

	admin.Get("/users", cfg.AdminUsers.ListUsers)
	admin.Patch("/users/:id", cfg.AdminUsers.UpdateUser)
	admin.Get("/apps/:id", cfg.AdminUsers.GetApp)
	admin.Put("/apps/:id/email-settings", cfg.AdminUsers.UpdateAppEmailSettings)

	// Realtime channel authenticates via token query param inside the
	// websocket handler itself.
	app.Use("/ws", cfg.WS.Upgrade)
	app.Get("/ws", cfg.WS.Serve())
}
