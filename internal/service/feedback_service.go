package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/feedback-hub/helpdesk/internal/domain"
	"github.com/feedback-hub/helpdesk/internal/events"
	"github.com/feedback-hub/helpdesk/internal/repository"
	apperrors "github.com/feedback-hub/helpdesk/pkg/util"
)

// FeedbackService handles star-rated feedback and admin replies.
type FeedbackService struct {
	feedbacks  repository.FeedbackRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// NewFeedbackService constructs the service.
func NewFeedbackService(feedbacks repository.FeedbackRepository, users repository.UserRepository, dispatcher events.Dispatcher) *FeedbackService {
	return &FeedbackService{feedbacks: feedbacks, users: users, dispatcher: dispatcher}
}

// FeedbackCreateInput describes feedback submission payload.
type FeedbackCreateInput struct {
	Rating   int
	Category domain.FeedbackCategory
	Comment  *string
}

// FeedbackDetail is a feedback entry with its reply thread.
type FeedbackDetail struct {
	Feedback *domain.Feedback
	Replies  []domain.FeedbackReply
}

// CreateFeedback records a rating. The rating must be a whole number from
// 1 to 5; the category defaults to general.
func (s *FeedbackService) CreateFeedback(ctx context.Context, appID, userID string, input FeedbackCreateInput) (*domain.Feedback, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": input.Rating})
	}
	category := input.Category
	if category == "" {
		category = domain.FeedbackCategoryGeneral
	}
	if !category.IsValid() {
		return nil, apperrors.NewValidationError("invalid category", map[string]any{"category": category})
	}

	feedback := &domain.Feedback{
		AppID:    appID,
		UserID:   userID,
		Rating:   input.Rating,
		Category: category,
		Comment:  input.Comment,
	}
	if err := s.feedbacks.Create(ctx, feedback); err != nil {
		return nil, apperrors.MapError(err)
	}

	author, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.EventFeedbackCreated, events.FeedbackCreatedPayload{
		Feedback: *feedback,
		Author:   *author,
	})
	return feedback, nil
}

// AddReply appends an admin reply and notifies the feedback author.
func (s *FeedbackService) AddReply(ctx context.Context, replier *domain.User, feedbackID, body string) (*domain.FeedbackReply, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("reply body is required", nil)
	}

	feedback, err := s.feedbacks.GetByID(ctx, feedbackID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	reply := &domain.FeedbackReply{
		FeedbackID: feedback.ID,
		UserID:     replier.ID,
		Body:       body,
	}
	if err := s.feedbacks.CreateReply(ctx, reply); err != nil {
		return nil, apperrors.MapError(err)
	}

	author, err := s.users.GetByID(ctx, feedback.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.EventFeedbackReplyAdded, events.FeedbackReplyAddedPayload{
		Feedback: *feedback,
		Reply:    *reply,
		Replier:  *replier,
		Author:   *author,
	})
	return reply, nil
}

// GetFeedback returns the entry with its full reply thread.
func (s *FeedbackService) GetFeedback(ctx context.Context, feedbackID string) (*FeedbackDetail, error) {
	feedback, err := s.feedbacks.GetByID(ctx, feedbackID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	replies, err := s.feedbacks.ListReplies(ctx, feedbackID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &FeedbackDetail{Feedback: feedback, Replies: replies}, nil
}

// GetFeedbackForUser returns the entry, enforcing ownership.
func (s *FeedbackService) GetFeedbackForUser(ctx context.Context, userID, feedbackID string) (*FeedbackDetail, error) {
	detail, err := s.GetFeedback(ctx, feedbackID)
	if err != nil {
		return nil, err
	}
	if detail.Feedback.UserID != userID {
		return nil, apperrors.NewForbidden("not your feedback")
	}
	return detail, nil
}

// ListUserFeedback returns the user's own entries, newest first.
func (s *FeedbackService) ListUserFeedback(ctx context.Context, appID, userID string, limit, offset int) ([]domain.Feedback, int, error) {
	items, total, err := s.feedbacks.ListWithFilter(ctx, repository.FeedbackFilter{
		AppID:  &appID,
		UserID: &userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return items, total, nil
}

// ListAdminFeedback returns entries matching the admin filter.
func (s *FeedbackService) ListAdminFeedback(ctx context.Context, filter repository.FeedbackFilter) ([]domain.Feedback, int, error) {
	items, total, err := s.feedbacks.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return items, total, nil
}

// CountReplies reports the reply total for list views.
func (s *FeedbackService) CountReplies(ctx context.Context, feedbackID string) (int, error) {
	count, err := s.feedbacks.CountReplies(ctx, feedbackID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

// DeleteFeedback removes the entry and, via cascade, its replies.
func (s *FeedbackService) DeleteFeedback(ctx context.Context, feedbackID string) error {
	if _, err := s.feedbacks.GetByID(ctx, feedbackID); err != nil {
		return apperrors.MapError(err)
	}
	return apperrors.MapError(s.feedbacks.Delete(ctx, feedbackID))
}

// DeleteReply removes a single reply.
func (s *FeedbackService) DeleteReply(ctx context.Context, replyID string) error {
	return apperrors.MapError(s.feedbacks.DeleteReply(ctx, replyID))
}

func (s *FeedbackService) publish(ctx context.Context, eventType events.EventType, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
