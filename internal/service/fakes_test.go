package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/feedback-hub/helpdesk/internal/domain"
	"github.com/feedback-hub/helpdesk/internal/repository"
)

// In-memory repository fakes. They mimic the semantics the Postgres
// implementations provide, including the all-or-nothing contract of
// ApplyUpdate, so service behavior can be asserted without a database.

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
	history map[string][]domain.TicketHistory

	failApplyUpdate bool
	countsCalls     int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets: make(map[string]*domain.Ticket),
		history: make(map[string][]domain.TicketHistory),
	}
}

func (r *fakeTicketRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.ID = r.nextID("ticket")
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	cp := *ticket
	r.tickets[ticket.ID] = &cp
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *ticket
	return &cp, nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		if filter.UserID != nil && t.UserID != *filter.UserID {
			continue
		}
		if filter.AppID != nil && t.AppID != *filter.AppID {
			continue
		}
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (r *fakeTicketRepo) ApplyUpdate(_ context.Context, ticketID string, update repository.TicketUpdate, history []domain.TicketHistory) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failApplyUpdate {
		return nil, errors.New("injected transaction failure")
	}
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if update.Status != nil {
		ticket.Status = *update.Status
	}
	if update.Priority != nil {
		ticket.Priority = *update.Priority
	}
	if update.AssigneeSet {
		ticket.AssigneeID = update.AssigneeID
	}
	if update.SLADeadline != nil {
		ticket.SLADeadline = update.SLADeadline
	}
	ticket.UpdatedAt = time.Now()
	for _, entry := range history {
		entry.ID = r.nextID("hist")
		entry.CreatedAt = time.Now()
		r.history[ticketID] = append(r.history[ticketID], entry)
	}
	cp := *ticket
	return &cp, nil
}

func (r *fakeTicketRepo) CountActiveByAssignee(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, t := range r.tickets {
		if t.AssigneeID != nil && *t.AssigneeID == userID && t.IsActive() {
			count++
		}
	}
	return count, nil
}

func (r *fakeTicketRepo) CountsByIDs(_ context.Context, ids []string) (map[string]repository.TicketCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.countsCalls++
	out := make(map[string]repository.TicketCounts, len(ids))
	for _, id := range ids {
		out[id] = repository.TicketCounts{}
	}
	return out, nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tickets, id)
	delete(r.history, id)
	return nil
}

func (r *fakeTicketRepo) historyFor(ticketID string) []domain.TicketHistory {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.TicketHistory, len(r.history[ticketID]))
	copy(out, r.history[ticketID])
	return out
}

// seedAssigned inserts an active ticket assigned to the given admin.
func (r *fakeTicketRepo) seedAssigned(assigneeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID("seed")
	r.tickets[id] = &domain.Ticket{
		ID:         id,
		AppID:      "app-1",
		UserID:     "user-seed",
		Title:      "seed",
		Status:     domain.TicketStatusOpen,
		Priority:   domain.TicketPriorityMedium,
		AssigneeID: &assigneeID,
	}
}

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users []*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{}
}

func (r *fakeUserRepo) addUser(name string, role domain.UserRole) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user := &domain.User{
		ID:        fmt.Sprintf("user-%d", r.seq),
		Name:      name,
		Email:     fmt.Sprintf("%s@test.local", name),
		Role:      role,
		CreatedAt: time.Now(),
	}
	r.users = append(r.users, user)
	return user
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.CreatedAt = time.Now()
	cp := *user
	r.users = append(r.users, &cp)
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.users {
		if existing.ID == user.ID {
			cp := *user
			r.users[i] = &cp
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ID == id {
			cp := *user
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListByRoles(_ context.Context, roles ...domain.UserRole) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roleSet := make(map[domain.UserRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}
	var out []domain.User
	for _, user := range r.users {
		if _, ok := roleSet[user.Role]; ok {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetNamesByIDs(_ context.Context, ids []string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make(map[string]string)
	for _, user := range r.users {
		for _, id := range ids {
			if user.ID == id {
				names[id] = user.Name
			}
		}
	}
	return names, nil
}

type fakeAppRepo struct {
	mu       sync.Mutex
	apps     map[string]*domain.App
	adminIDs map[string][]string
}

func newFakeAppRepo() *fakeAppRepo {
	return &fakeAppRepo{
		apps:     make(map[string]*domain.App),
		adminIDs: make(map[string][]string),
	}
}

func (r *fakeAppRepo) addApp(id string) *domain.App {
	r.mu.Lock()
	defer r.mu.Unlock()
	app := &domain.App{ID: id, Name: id, APIKey: "key-" + id}
	r.apps[id] = app
	return app
}

func (r *fakeAppRepo) GetByID(_ context.Context, id string) (*domain.App, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *app
	return &cp, nil
}

func (r *fakeAppRepo) GetByAPIKey(_ context.Context, apiKey string) (*domain.App, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, app := range r.apps {
		if app.APIKey == apiKey {
			cp := *app
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAppRepo) ListAdminIDs(_ context.Context, appID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.adminIDs[appID]))
	copy(out, r.adminIDs[appID])
	return out, nil
}

func (r *fakeAppRepo) GetNamesByIDs(_ context.Context, ids []string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make(map[string]string)
	for _, id := range ids {
		if app, ok := r.apps[id]; ok {
			names[id] = app.Name
		}
	}
	return names, nil
}

func (r *fakeAppRepo) UpdateEmailSettings(_ context.Context, app *domain.App) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[app.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *app
	r.apps[app.ID] = &cp
	return nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	seq      int
	comments map[string][]domain.TicketComment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[string][]domain.TicketComment)}
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.TicketComment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	comment.ID = fmt.Sprintf("comment-%d", r.seq)
	comment.CreatedAt = time.Now()
	r.comments[comment.TicketID] = append(r.comments[comment.TicketID], *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string, includeInternal bool) ([]domain.TicketComment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TicketComment
	for _, comment := range r.comments[ticketID] {
		if !includeInternal && comment.IsInternalNote {
			continue
		}
		out = append(out, comment)
	}
	return out, nil
}

func (r *fakeCommentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ticketID, comments := range r.comments {
		for i, comment := range comments {
			if comment.ID == id {
				r.comments[ticketID] = append(comments[:i], comments[i+1:]...)
				return nil
			}
		}
	}
	return pgx.ErrNoRows
}

type fakeHistoryRepo struct {
	tickets *fakeTicketRepo
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	entries := r.tickets.historyFor(ticketID)
	// Newest first, matching the Postgres implementation.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

type fakeAttachmentRepo struct {
	mu          sync.Mutex
	seq         int
	attachments map[string][]domain.TicketAttachment
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{attachments: make(map[string][]domain.TicketAttachment)}
}

func (r *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.TicketAttachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	attachment.ID = fmt.Sprintf("attachment-%d", r.seq)
	attachment.CreatedAt = time.Now()
	r.attachments[attachment.TicketID] = append(r.attachments[attachment.TicketID], *attachment)
	return nil
}

func (r *fakeAttachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketAttachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.TicketAttachment, len(r.attachments[ticketID]))
	copy(out, r.attachments[ticketID])
	return out, nil
}

type fakeFeedbackRepo struct {
	mu        sync.Mutex
	seq       int
	feedbacks map[string]*domain.Feedback
	replies   map[string][]domain.FeedbackReply
}

func newFakeFeedbackRepo() *fakeFeedbackRepo {
	return &fakeFeedbackRepo{
		feedbacks: make(map[string]*domain.Feedback),
		replies:   make(map[string][]domain.FeedbackReply),
	}
}

func (r *fakeFeedbackRepo) Create(_ context.Context, feedback *domain.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	feedback.ID = fmt.Sprintf("feedback-%d", r.seq)
	feedback.CreatedAt = time.Now()
	cp := *feedback
	r.feedbacks[feedback.ID] = &cp
	return nil
}

func (r *fakeFeedbackRepo) GetByID(_ context.Context, id string) (*domain.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	feedback, ok := r.feedbacks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *feedback
	return &cp, nil
}

func (r *fakeFeedbackRepo) ListWithFilter(_ context.Context, filter repository.FeedbackFilter) ([]domain.Feedback, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Feedback
	for _, feedback := range r.feedbacks {
		if filter.AppID != nil && feedback.AppID != *filter.AppID {
			continue
		}
		if filter.UserID != nil && feedback.UserID != *filter.UserID {
			continue
		}
		out = append(out, *feedback)
	}
	return out, len(out), nil
}

func (r *fakeFeedbackRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.feedbacks, id)
	delete(r.replies, id)
	return nil
}

func (r *fakeFeedbackRepo) CountReplies(_ context.Context, feedbackID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.replies[feedbackID]), nil
}

func (r *fakeFeedbackRepo) CreateReply(_ context.Context, reply *domain.FeedbackReply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	reply.ID = fmt.Sprintf("reply-%d", r.seq)
	reply.CreatedAt = time.Now()
	r.replies[reply.FeedbackID] = append(r.replies[reply.FeedbackID], *reply)
	return nil
}

func (r *fakeFeedbackRepo) ListReplies(_ context.Context, feedbackID string) ([]domain.FeedbackReply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.FeedbackReply, len(r.replies[feedbackID]))
	copy(out, r.replies[feedbackID])
	return out, nil
}

func (r *fakeFeedbackRepo) DeleteReply(_ context.Context, replyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for feedbackID, replies := range r.replies {
		for i, reply := range replies {
			if reply.ID == replyID {
				r.replies[feedbackID] = append(replies[:i], replies[i+1:]...)
				return nil
			}
		}
	}
	return pgx.ErrNoRows
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	seq           int
	notifications []*domain.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	notification.ID = fmt.Sprintf("notification-%d", r.seq)
	notification.CreatedAt = time.Now()
	cp := *notification
	r.notifications = append(r.notifications, &cp)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]domain.Notification, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, notification := range r.notifications {
		if notification.UserID == userID {
			out = append(out, *notification)
		}
	}
	return out, len(out), nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, notification := range r.notifications {
		if notification.UserID == userID && !notification.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, notification := range r.notifications {
		if notification.ID == id && notification.UserID == userID {
			notification.IsRead = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, notification := range r.notifications {
		if notification.UserID == userID {
			notification.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) forUser(userID string) []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, notification := range r.notifications {
		if notification.UserID == userID {
			out = append(out, *notification)
		}
	}
	return out
}

// Recording doubles for the outbound side effects.

type sentEmail struct {
	AppID   string
	To      string
	Subject string
}

type recordingMailer struct {
	mu          sync.Mutex
	sent        []sentEmail
	invalidated int
}

func (m *recordingMailer) Send(app *domain.App, to, subject, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appID := ""
	if app != nil {
		appID = app.ID
	}
	m.sent = append(m.sent, sentEmail{AppID: appID, To: to, Subject: subject})
}

func (m *recordingMailer) Invalidate(_ *domain.App) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated++
}

func (m *recordingMailer) emails() []sentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentEmail, len(m.sent))
	copy(out, m.sent)
	return out
}

type sentPush struct {
	UserID string
	Title  string
}

type recordingPusher struct {
	mu   sync.Mutex
	sent []sentPush
}

func (p *recordingPusher) SendToUser(_ context.Context, _ *domain.App, userID, title, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sentPush{UserID: userID, Title: title})
}

func (p *recordingPusher) pushes() []sentPush {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]sentPush, len(p.sent))
	copy(out, p.sent)
	return out
}

type recordingFanout struct {
	mu        sync.Mutex
	envelopes map[string][]any
}

func newRecordingFanout() *recordingFanout {
	return &recordingFanout{envelopes: make(map[string][]any)}
}

func (f *recordingFanout) SendToUser(userID string, envelope any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.envelopes[userID] = append(f.envelopes[userID], envelope)
}

func (f *recordingFanout) sentTo(userID string) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]any, len(f.envelopes[userID]))
	copy(out, f.envelopes[userID])
	return out
}
