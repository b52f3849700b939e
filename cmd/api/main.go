package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/feedback-hub/helpdesk/internal/api/http"
	"github.com/feedback-hub/helpdesk/internal/api/http/handlers"
	"github.com/feedback-hub/helpdesk/internal/auth"
	"github.com/feedback-hub/helpdesk/internal/config"
	"github.com/feedback-hub/helpdesk/internal/events"
	"github.com/feedback-hub/helpdesk/internal/notifier"
	"github.com/feedback-hub/helpdesk/internal/observability"
	"github.com/feedback-hub/helpdesk/internal/persistence"
	"github.com/feedback-hub/helpdesk/internal/repository"
	"github.com/feedback-hub/helpdesk/internal/service"
	"github.com/feedback-hub/helpdesk/internal/sla"
	"github.com/feedback-hub/helpdesk/internal/worker"
	"github.com/feedback-hub/helpdesk/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	appRepo := repository.NewAppRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewTicketCommentRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	attachmentRepo := repository.NewTicketAttachmentRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	deviceTokenRepo := repository.NewDeviceTokenRepository(pool)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)

	dispatcher := events.NewAsyncDispatcher(logger)
	hub := ws.NewHub(logger)
	mailer := notifier.NewMailer(cfg.SMTP, logger)
	pusher := notifier.NewPusher(deviceTokenRepo, logger)
	policy := sla.NewPolicy(cfg.SLA)

	balancer := service.NewAssignmentService(appRepo, userRepo, ticketRepo, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		CommentRepo:    commentRepo,
		HistoryRepo:    historyRepo,
		AttachmentRepo: attachmentRepo,
		UserRepo:       userRepo,
		AppRepo:        appRepo,
		Balancer:       balancer,
		Policy:         policy,
		Dispatcher:     dispatcher,
	})
	feedbackService := service.NewFeedbackService(feedbackRepo, userRepo, dispatcher)
	authService := service.NewAuthService(userRepo, tokens, cfg.Auth.BcryptCost, dispatcher)
	deviceTokenService := service.NewDeviceTokenService(deviceTokenRepo)
	appService := service.NewAppService(appRepo, mailer)
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		UserRepo:         userRepo,
		AppRepo:          appRepo,
		Fanout:           hub,
		Mailer:           mailer,
		Pusher:           pusher,
		Cache:            redis.Client,
		Logger:           logger,
	})

	worker.StartNotificationWorker(notificationService, dispatcher)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	metrics := observability.NewMetrics()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:        handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:          handlers.NewAuthHandler(authService),
		Tickets:       handlers.NewTicketsHandler(ticketService),
		Feedback:      handlers.NewFeedbackHandler(feedbackService),
		Notifications: handlers.NewNotificationsHandler(notificationService, deviceTokenService),
		AdminTickets:  handlers.NewAdminTicketsHandler(ticketService),
		AdminFeedback: handlers.NewAdminFeedbackHandler(feedbackService),
		AdminUsers:    handlers.NewAdminUsersHandler(userRepo, appService),

		APIKeyMiddleware: httptransport.NewAPIKeyMiddleware(appRepo),
		AuthMiddleware:   authMiddleware,
		WS:               ws.NewHandler(hub, tokens, logger),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
