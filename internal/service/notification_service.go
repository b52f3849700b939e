package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/feedback-hub/helpdesk/internal/domain"
	"github.com/feedback-hub/helpdesk/internal/events"
	"github.com/feedback-hub/helpdesk/internal/notifier"
	"github.com/feedback-hub/helpdesk/internal/repository"
	apperrors "github.com/feedback-hub/helpdesk/pkg/util"
)

// Fanout is the live delivery surface the service pushes envelopes to.
type Fanout interface {
	SendToUser(userID string, envelope any)
}

const unreadCountTTL = 5 * time.Minute

func unreadCountKey(userID string) string {
	return "notifications:unread:" + userID
}

// notificationEnvelope is the frame pushed over live connections.
type notificationEnvelope struct {
	Type string              `json:"type"`
	Data notificationPayload `json:"data"`
}

type notificationPayload struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      *string   `json:"link,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationService persists in-app alerts, mirrors them over the live
// channel, and consumes domain events to drive email and push delivery.
// All outbound work here is best-effort: failures are logged, never
// returned to the flow that produced the event.
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	apps          repository.AppRepository
	fanout        Fanout
	mailer        notifier.Sender
	pusher        notifier.PushSender
	cache         *redis.Client
	logger        *zap.Logger
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	UserRepo         repository.UserRepository
	AppRepo          repository.AppRepository
	Fanout           Fanout
	Mailer           notifier.Sender
	Pusher           notifier.PushSender
	Cache            *redis.Client
	Logger           *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		notifications: deps.NotificationRepo,
		users:         deps.UserRepo,
		apps:          deps.AppRepo,
		fanout:        deps.Fanout,
		mailer:        deps.Mailer,
		pusher:        deps.Pusher,
		cache:         deps.Cache,
		logger:        deps.Logger,
	}
}

// Create persists the notification, then mirrors it to the recipient's
// live sessions. The row is the durable record; the push may be lost.
func (n *NotificationService) Create(ctx context.Context, notification *domain.Notification) error {
	if err := n.notifications.Create(ctx, notification); err != nil {
		return apperrors.MapError(err)
	}
	n.invalidateUnreadCount(ctx, notification.UserID)

	if n.fanout != nil {
		n.fanout.SendToUser(notification.UserID, notificationEnvelope{
			Type: "notification",
			Data: notificationPayload{
				ID:        notification.ID,
				Type:      string(notification.Type),
				Title:     notification.Title,
				Message:   notification.Message,
				Link:      notification.Link,
				CreatedAt: notification.CreatedAt,
			},
		})
	}
	return nil
}

// NotifyAdmins raises one notification per admin-role user.
func (n *NotificationService) NotifyAdmins(ctx context.Context, notificationType domain.NotificationType, title, message string, link *string) error {
	admins, err := n.users.ListByRoles(ctx, domain.AdminRoles()...)
	if err != nil {
		return apperrors.MapError(err)
	}
	for _, admin := range admins {
		notification := &domain.Notification{
			UserID:  admin.ID,
			Type:    notificationType,
			Title:   title,
			Message: message,
			Link:    link,
		}
		if err := n.Create(ctx, notification); err != nil {
			n.logger.Error("admin notification failed",
				zap.String("userId", admin.ID), zap.Error(err))
		}
	}
	return nil
}

// List returns the user's notifications, newest first.
func (n *NotificationService) List(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, int, error) {
	items, total, err := n.notifications.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return items, total, nil
}

// UnreadCount returns the user's unread total, served from cache when warm.
func (n *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	if n.cache != nil {
		if cached, err := n.cache.Get(ctx, unreadCountKey(userID)).Result(); err == nil {
			if count, convErr := strconv.Atoi(cached); convErr == nil {
				return count, nil
			}
		}
	}

	count, err := n.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if n.cache != nil {
		if err := n.cache.Set(ctx, unreadCountKey(userID), count, unreadCountTTL).Err(); err != nil {
			n.logger.Debug("unread count cache write failed", zap.Error(err))
		}
	}
	return count, nil
}

// MarkRead flips one notification's read state, scoped to the owner.
func (n *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := n.notifications.MarkRead(ctx, id, userID); err != nil {
		return apperrors.MapError(err)
	}
	n.invalidateUnreadCount(ctx, userID)
	return nil
}

// MarkAllRead flips every unread notification for the user.
func (n *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := n.notifications.MarkAllRead(ctx, userID); err != nil {
		return apperrors.MapError(err)
	}
	n.invalidateUnreadCount(ctx, userID)
	return nil
}

func (n *NotificationService) invalidateUnreadCount(ctx context.Context, userID string) {
	if n.cache == nil {
		return
	}
	if err := n.cache.Del(ctx, unreadCountKey(userID)).Err(); err != nil {
		n.logger.Debug("unread count cache invalidate failed", zap.Error(err))
	}
}

// RegisterHandlers subscribes to domain events.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	dispatcher.Subscribe(events.EventTicketCommentAdded, n.handleTicketCommentAdded)
	dispatcher.Subscribe(events.EventFeedbackCreated, n.handleFeedbackCreated)
	dispatcher.Subscribe(events.EventFeedbackReplyAdded, n.handleFeedbackReplyAdded)
	dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
}

func (n *NotificationService) appFor(ctx context.Context, appID string) *domain.App {
	app, err := n.apps.GetByID(ctx, appID)
	if err != nil {
		n.logger.Warn("app lookup for notification failed",
			zap.String("appId", appID), zap.Error(err))
		return nil
	}
	return app
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	ticket := payload.Ticket
	app := n.appFor(ctx, ticket.AppID)

	if n.mailer != nil {
		subject, body := notifier.TicketCreatedEmail(&ticket)
		n.mailer.Send(app, payload.Reporter.Email, subject, body)
	}

	link := "/tickets/" + ticket.ID
	return n.NotifyAdmins(ctx, domain.NotificationTypeNewTicket,
		"New ticket",
		fmt.Sprintf("%s opened a %s priority ticket: %s", payload.Reporter.Name, ticket.Priority, ticket.Title),
		&link)
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	ticket := payload.Ticket
	app := n.appFor(ctx, ticket.AppID)

	if n.mailer != nil {
		subject, body := notifier.TicketStatusChangedEmail(&ticket, payload.OldStatus, payload.NewStatus)
		n.mailer.Send(app, payload.Reporter.Email, subject, body)
	}
	if n.pusher != nil && app != nil {
		n.pusher.SendToUser(ctx, app, payload.Reporter.ID,
			"Ticket update",
			fmt.Sprintf("Your ticket %q moved from %s to %s", ticket.Title, payload.OldStatus, payload.NewStatus))
	}
	return nil
}

// handleTicketCommentAdded notifies the reporter by email and push, and the
// assignee by email only. The assignee intentionally gets no push; whether
// that should change is a product question, not a transport one.
func (n *NotificationService) handleTicketCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCommentAddedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	ticket := payload.Ticket
	app := n.appFor(ctx, ticket.AppID)

	if payload.Author.ID != payload.Reporter.ID {
		if n.mailer != nil {
			subject, body := notifier.TicketCommentEmail(&ticket, &payload.Author, &payload.Comment)
			n.mailer.Send(app, payload.Reporter.Email, subject, body)
		}
		if n.pusher != nil && app != nil {
			n.pusher.SendToUser(ctx, app, payload.Reporter.ID,
				"New comment",
				fmt.Sprintf("%s commented on your ticket %q", payload.Author.Name, ticket.Title))
		}
	}

	if payload.Assignee != nil && payload.Assignee.ID != payload.Author.ID {
		if n.mailer != nil {
			subject, body := notifier.TicketCommentEmail(&ticket, &payload.Author, &payload.Comment)
			n.mailer.Send(app, payload.Assignee.Email, subject, body)
		}
	}
	return nil
}

func (n *NotificationService) handleFeedbackCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.FeedbackCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	link := "/feedback/" + payload.Feedback.ID
	return n.NotifyAdmins(ctx, domain.NotificationTypeNewFeedback,
		"New feedback",
		fmt.Sprintf("%s left a %d star rating", payload.Author.Name, payload.Feedback.Rating),
		&link)
}

func (n *NotificationService) handleFeedbackReplyAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.FeedbackReplyAddedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	app := n.appFor(ctx, payload.Feedback.AppID)

	if n.mailer != nil {
		subject, body := notifier.FeedbackReplyEmail(&payload.Feedback, &payload.Replier, &payload.Reply)
		n.mailer.Send(app, payload.Author.Email, subject, body)
	}
	if n.pusher != nil && app != nil {
		n.pusher.SendToUser(ctx, app, payload.Author.ID,
			"Reply to your feedback",
			fmt.Sprintf("%s replied to your %d star feedback", payload.Replier.Name, payload.Feedback.Rating))
	}
	return nil
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserRegisteredPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	var app *domain.App
	if payload.AppID != "" {
		app = n.appFor(ctx, payload.AppID)
	}
	if n.mailer != nil {
		subject, body := notifier.WelcomeEmail(&payload.User)
		n.mailer.Send(app, payload.User.Email, subject, body)
	}
	return nil
}
