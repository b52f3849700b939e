package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedback-hub/helpdesk/internal/domain"
	"github.com/feedback-hub/helpdesk/internal/events"
)

type feedbackFixture struct {
	svc       *FeedbackService
	feedbacks *fakeFeedbackRepo
	users     *fakeUserRepo
	captured  *[]events.Event
}

func newFeedbackFixture() *feedbackFixture {
	feedbacks := newFakeFeedbackRepo()
	users := newFakeUserRepo()

	dispatcher := events.NewInMemoryDispatcher()
	var captured []events.Event
	for _, eventType := range []events.EventType{
		events.EventFeedbackCreated,
		events.EventFeedbackReplyAdded,
	} {
		dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			captured = append(captured, event)
			return nil
		})
	}

	return &feedbackFixture{
		svc:       NewFeedbackService(feedbacks, users, dispatcher),
		feedbacks: feedbacks,
		users:     users,
		captured:  &captured,
	}
}

func TestCreateFeedbackRatingBounds(t *testing.T) {
	f := newFeedbackFixture()
	author := f.users.addUser("author", domain.UserRoleUser)

	for _, rating := range []int{0, 6, -1} {
		_, err := f.svc.CreateFeedback(context.Background(), "app-1", author.ID, FeedbackCreateInput{Rating: rating})
		require.Error(t, err, "rating %d must be rejected", rating)
	}
	assert.Empty(t, f.feedbacks.feedbacks)

	for _, rating := range []int{1, 2, 3, 4, 5} {
		feedback, err := f.svc.CreateFeedback(context.Background(), "app-1", author.ID, FeedbackCreateInput{Rating: rating})
		require.NoError(t, err, "rating %d must be accepted", rating)
		assert.Equal(t, rating, feedback.Rating)
	}
	assert.Len(t, f.feedbacks.feedbacks, 5)
}

func TestCreateFeedbackCategoryDefault(t *testing.T) {
	f := newFeedbackFixture()
	author := f.users.addUser("author", domain.UserRoleUser)

	// Omitted category defaults to general.
	feedback, err := f.svc.CreateFeedback(context.Background(), "app-1", author.ID, FeedbackCreateInput{Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackCategoryGeneral, feedback.Category)

	// A supplied category is preserved verbatim.
	feedback, err = f.svc.CreateFeedback(context.Background(), "app-1", author.ID, FeedbackCreateInput{
		Rating:   3,
		Category: domain.FeedbackCategoryBugReport,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackCategoryBugReport, feedback.Category)
}

func TestCreateFeedbackRejectsUnknownCategory(t *testing.T) {
	f := newFeedbackFixture()
	author := f.users.addUser("author", domain.UserRoleUser)

	_, err := f.svc.CreateFeedback(context.Background(), "app-1", author.ID, FeedbackCreateInput{
		Rating:   4,
		Category: domain.FeedbackCategory("rant"),
	})
	require.Error(t, err)
	assert.Empty(t, f.feedbacks.feedbacks)
}

func TestCreateFeedbackPublishesEvent(t *testing.T) {
	f := newFeedbackFixture()
	author := f.users.addUser("author", domain.UserRoleUser)

	_, err := f.svc.CreateFeedback(context.Background(), "app-1", author.ID, FeedbackCreateInput{Rating: 4})
	require.NoError(t, err)

	require.Len(t, *f.captured, 1)
	payload := (*f.captured)[0].Payload.(events.FeedbackCreatedPayload)
	assert.Equal(t, author.ID, payload.Author.ID)
	assert.Equal(t, 4, payload.Feedback.Rating)
}

func TestAddReplyNotifiesAuthor(t *testing.T) {
	f := newFeedbackFixture()
	author := f.users.addUser("author", domain.UserRoleUser)
	admin := f.users.addUser("admin", domain.UserRoleAdmin)

	feedback, err := f.svc.CreateFeedback(context.Background(), "app-1", author.ID, FeedbackCreateInput{Rating: 2})
	require.NoError(t, err)

	reply, err := f.svc.AddReply(context.Background(), admin, feedback.ID, "sorry to hear that")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, reply.UserID)

	var replyEvents []events.Event
	for _, event := range *f.captured {
		if event.Type == events.EventFeedbackReplyAdded {
			replyEvents = append(replyEvents, event)
		}
	}
	require.Len(t, replyEvents, 1)
	payload := replyEvents[0].Payload.(events.FeedbackReplyAddedPayload)
	assert.Equal(t, author.ID, payload.Author.ID)
	assert.Equal(t, admin.ID, payload.Replier.ID)
	assert.Equal(t, 2, payload.Feedback.Rating)
}

func TestAddReplyRejectsBlankBody(t *testing.T) {
	f := newFeedbackFixture()
	author := f.users.addUser("author", domain.UserRoleUser)
	admin := f.users.addUser("admin", domain.UserRoleAdmin)

	feedback, err := f.svc.CreateFeedback(context.Background(), "app-1", author.ID, FeedbackCreateInput{Rating: 2})
	require.NoError(t, err)

	_, err = f.svc.AddReply(context.Background(), admin, feedback.ID, "   ")
	require.Error(t, err)
}

func TestGetFeedbackForUserDeniesNonOwner(t *testing.T) {
	f := newFeedbackFixture()
	author := f.users.addUser("author", domain.UserRoleUser)
	other := f.users.addUser("other", domain.UserRoleUser)

	feedback, err := f.svc.CreateFeedback(context.Background(), "app-1", author.ID, FeedbackCreateInput{Rating: 5})
	require.NoError(t, err)

	_, err = f.svc.GetFeedbackForUser(context.Background(), other.ID, feedback.ID)
	require.Error(t, err)

	detail, err := f.svc.GetFeedbackForUser(context.Background(), author.ID, feedback.ID)
	require.NoError(t, err)
	assert.Equal(t, feedback.ID, detail.Feedback.ID)
}
