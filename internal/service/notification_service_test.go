package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/feedback-hub/helpdesk/internal/domain"
	"github.com/feedback-hub/helpdesk/internal/events"
)

type notificationFixture struct {
	svc           *NotificationService
	notifications *fakeNotificationRepo
	users         *fakeUserRepo
	apps          *fakeAppRepo
	fanout        *recordingFanout
	mailer        *recordingMailer
	pusher        *recordingPusher
	dispatcher    events.Dispatcher
}

func newNotificationFixture() *notificationFixture {
	notifications := newFakeNotificationRepo()
	users := newFakeUserRepo()
	apps := newFakeAppRepo()
	apps.addApp("app-1")
	fanout := newRecordingFanout()
	mailer := &recordingMailer{}
	pusher := &recordingPusher{}

	svc := NewNotificationService(NotificationDependencies{
		NotificationRepo: notifications,
		UserRepo:         users,
		AppRepo:          apps,
		Fanout:           fanout,
		Mailer:           mailer,
		Pusher:           pusher,
		Logger:           zap.NewNop(),
	})
	dispatcher := events.NewInMemoryDispatcher()
	svc.RegisterHandlers(dispatcher)

	return &notificationFixture{
		svc:           svc,
		notifications: notifications,
		users:         users,
		apps:          apps,
		fanout:        fanout,
		mailer:        mailer,
		pusher:        pusher,
		dispatcher:    dispatcher,
	}
}

func (f *notificationFixture) publish(t *testing.T, eventType events.EventType, payload interface{}) {
	t.Helper()
	err := f.dispatcher.Publish(context.Background(), events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	})
	require.NoError(t, err)
}

func TestCreatePersistsAndMirrorsToFanout(t *testing.T) {
	f := newNotificationFixture()

	notification := &domain.Notification{
		UserID:  "user-1",
		Type:    domain.NotificationTypeNewTicket,
		Title:   "New ticket",
		Message: "someone opened a ticket",
	}
	require.NoError(t, f.svc.Create(context.Background(), notification))

	stored := f.notifications.forUser("user-1")
	require.Len(t, stored, 1)
	assert.False(t, stored[0].IsRead)

	sent := f.fanout.sentTo("user-1")
	require.Len(t, sent, 1)
	envelope := sent[0].(notificationEnvelope)
	assert.Equal(t, "notification", envelope.Type)
	assert.Equal(t, "New ticket", envelope.Data.Title)
	assert.Equal(t, stored[0].ID, envelope.Data.ID)
}

func TestNotifyAdminsReachesEveryAdmin(t *testing.T) {
	f := newNotificationFixture()
	f.users.addUser("reporter", domain.UserRoleUser)
	a := f.users.addUser("a", domain.UserRoleAdmin)
	b := f.users.addUser("b", domain.UserRoleSuperAdmin)

	link := "/tickets/ticket-1"
	require.NoError(t, f.svc.NotifyAdmins(context.Background(),
		domain.NotificationTypeNewTicket, "New ticket", "details", &link))

	assert.Len(t, f.notifications.forUser(a.ID), 1)
	assert.Len(t, f.notifications.forUser(b.ID), 1)
	// End-users never receive admin notifications.
	assert.Empty(t, f.notifications.forUser("user-1"))
}

func TestTicketCreatedHandlerEmailsReporterAndNotifiesAdmins(t *testing.T) {
	f := newNotificationFixture()
	reporter := f.users.addUser("reporter", domain.UserRoleUser)
	admin := f.users.addUser("admin", domain.UserRoleAdmin)

	f.publish(t, events.EventTicketCreated, events.TicketCreatedPayload{
		Ticket: domain.Ticket{
			ID: "ticket-1", AppID: "app-1", UserID: reporter.ID,
			Title: "Crash", Priority: domain.TicketPriorityHigh,
		},
		Reporter: *reporter,
	})

	emails := f.mailer.emails()
	require.Len(t, emails, 1)
	assert.Equal(t, reporter.Email, emails[0].To)

	adminAlerts := f.notifications.forUser(admin.ID)
	require.Len(t, adminAlerts, 1)
	assert.Equal(t, domain.NotificationTypeNewTicket, adminAlerts[0].Type)
	require.NotNil(t, adminAlerts[0].Link)
	assert.Equal(t, "/tickets/ticket-1", *adminAlerts[0].Link)
}

func TestStatusChangedHandlerEmailsAndPushesReporter(t *testing.T) {
	f := newNotificationFixture()
	reporter := f.users.addUser("reporter", domain.UserRoleUser)

	f.publish(t, events.EventTicketStatusChanged, events.TicketStatusChangedPayload{
		Ticket:    domain.Ticket{ID: "ticket-1", AppID: "app-1", UserID: reporter.ID, Title: "Crash"},
		Reporter:  *reporter,
		OldStatus: domain.TicketStatusOpen,
		NewStatus: domain.TicketStatusResolved,
	})

	emails := f.mailer.emails()
	require.Len(t, emails, 1)
	assert.Equal(t, reporter.Email, emails[0].To)

	pushes := f.pusher.pushes()
	require.Len(t, pushes, 1)
	assert.Equal(t, reporter.ID, pushes[0].UserID)
}

func TestCommentHandlerReporterGetsEmailAndPushAssigneeEmailOnly(t *testing.T) {
	f := newNotificationFixture()
	reporter := f.users.addUser("reporter", domain.UserRoleUser)
	assignee := f.users.addUser("assignee", domain.UserRoleAdmin)
	commenter := f.users.addUser("commenter", domain.UserRoleAdmin)

	f.publish(t, events.EventTicketCommentAdded, events.TicketCommentAddedPayload{
		Ticket:   domain.Ticket{ID: "ticket-1", AppID: "app-1", UserID: reporter.ID, Title: "Crash", AssigneeID: &assignee.ID},
		Comment:  domain.TicketComment{ID: "comment-1", TicketID: "ticket-1", UserID: commenter.ID, Body: "looking"},
		Author:   *commenter,
		Reporter: *reporter,
		Assignee: assignee,
	})

	emails := f.mailer.emails()
	require.Len(t, emails, 2)
	recipients := map[string]bool{}
	for _, email := range emails {
		recipients[email.To] = true
	}
	assert.True(t, recipients[reporter.Email])
	assert.True(t, recipients[assignee.Email])

	// Only the reporter gets a push; the assignee is email-only.
	pushes := f.pusher.pushes()
	require.Len(t, pushes, 1)
	assert.Equal(t, reporter.ID, pushes[0].UserID)
}

func TestCommentHandlerSkipsAuthorAsRecipient(t *testing.T) {
	f := newNotificationFixture()
	reporter := f.users.addUser("reporter", domain.UserRoleUser)
	assignee := f.users.addUser("assignee", domain.UserRoleAdmin)

	// The reporter comments on their own ticket: no self-notification, but
	// the assignee still gets the email.
	f.publish(t, events.EventTicketCommentAdded, events.TicketCommentAddedPayload{
		Ticket:   domain.Ticket{ID: "ticket-1", AppID: "app-1", UserID: reporter.ID, Title: "Crash", AssigneeID: &assignee.ID},
		Comment:  domain.TicketComment{ID: "comment-1", TicketID: "ticket-1", UserID: reporter.ID, Body: "any news?"},
		Author:   *reporter,
		Reporter: *reporter,
		Assignee: assignee,
	})

	emails := f.mailer.emails()
	require.Len(t, emails, 1)
	assert.Equal(t, assignee.Email, emails[0].To)
	assert.Empty(t, f.pusher.pushes())
}

func TestFeedbackCreatedHandlerNotifiesAdmins(t *testing.T) {
	f := newNotificationFixture()
	author := f.users.addUser("author", domain.UserRoleUser)
	admin := f.users.addUser("admin", domain.UserRoleAdmin)

	f.publish(t, events.EventFeedbackCreated, events.FeedbackCreatedPayload{
		Feedback: domain.Feedback{ID: "feedback-1", AppID: "app-1", UserID: author.ID, Rating: 2},
		Author:   *author,
	})

	alerts := f.notifications.forUser(admin.ID)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.NotificationTypeNewFeedback, alerts[0].Type)
}

func TestFeedbackReplyHandlerPushesAuthor(t *testing.T) {
	f := newNotificationFixture()
	author := f.users.addUser("author", domain.UserRoleUser)
	admin := f.users.addUser("admin", domain.UserRoleAdmin)

	f.publish(t, events.EventFeedbackReplyAdded, events.FeedbackReplyAddedPayload{
		Feedback: domain.Feedback{ID: "feedback-1", AppID: "app-1", UserID: author.ID, Rating: 2},
		Reply:    domain.FeedbackReply{ID: "reply-1", FeedbackID: "feedback-1", UserID: admin.ID, Body: "sorry"},
		Replier:  *admin,
		Author:   *author,
	})

	pushes := f.pusher.pushes()
	require.Len(t, pushes, 1)
	assert.Equal(t, author.ID, pushes[0].UserID)
}

func TestUserRegisteredHandlerSendsWelcome(t *testing.T) {
	f := newNotificationFixture()
	user := f.users.addUser("newcomer", domain.UserRoleUser)

	f.publish(t, events.EventUserRegistered, events.UserRegisteredPayload{
		User: *user, AppID: "app-1",
	})

	emails := f.mailer.emails()
	require.Len(t, emails, 1)
	assert.Equal(t, user.Email, emails[0].To)
}

func TestMarkReadIsOwnerScoped(t *testing.T) {
	f := newNotificationFixture()

	notification := &domain.Notification{
		UserID: "user-1", Type: domain.NotificationTypeNewTicket,
		Title: "t", Message: "m",
	}
	require.NoError(t, f.svc.Create(context.Background(), notification))

	// Another user cannot flip someone else's read state.
	err := f.svc.MarkRead(context.Background(), notification.ID, "user-2")
	require.Error(t, err)

	require.NoError(t, f.svc.MarkRead(context.Background(), notification.ID, "user-1"))
	stored := f.notifications.forUser("user-1")
	require.Len(t, stored, 1)
	assert.True(t, stored[0].IsRead)
}

func TestUnreadCountWithoutCache(t *testing.T) {
	f := newNotificationFixture()

	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.Create(context.Background(), &domain.Notification{
			UserID: "user-1", Type: domain.NotificationTypeNewTicket,
			Title: "t", Message: "m",
		}))
	}
	require.NoError(t, f.svc.MarkAllRead(context.Background(), "user-1"))

	count, err := f.svc.UnreadCount(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
