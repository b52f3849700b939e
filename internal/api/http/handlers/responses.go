package handlers

import (
	"github.com/feedback-hub/helpdesk/internal/api/dto"
	"github.com/feedback-hub/helpdesk/internal/domain"
	"github.com/feedback-hub/helpdesk/internal/repository"
	"github.com/feedback-hub/helpdesk/internal/service"
)

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		AvatarURL: user.AvatarURL,
		Banned:    user.Banned,
		CreatedAt: user.CreatedAt,
	}
}

// userRef builds the embedded id+name reference, nil when id is absent.
func userRef(id string, names *service.TicketNames) *dto.UserSummary {
	if id == "" {
		return nil
	}
	summary := &dto.UserSummary{ID: id}
	if names != nil {
		summary.Name = names.Users[id]
	}
	return summary
}

func appRef(id string, names *service.TicketNames) *dto.AppSummary {
	if id == "" {
		return nil
	}
	summary := &dto.AppSummary{ID: id}
	if names != nil {
		summary.Name = names.Apps[id]
	}
	return summary
}

func ticketSummary(ticket *domain.Ticket, counts repository.TicketCounts, names *service.TicketNames) dto.TicketSummary {
	resp := dto.TicketSummary{
		ID:              ticket.ID,
		AppID:           ticket.AppID,
		UserID:          ticket.UserID,
		Title:           ticket.Title,
		Category:        ticket.Category,
		Status:          ticket.Status,
		Priority:        ticket.Priority,
		AssigneeID:      ticket.AssigneeID,
		SLADeadline:     ticket.SLADeadline,
		Reporter:        userRef(ticket.UserID, names),
		App:             appRef(ticket.AppID, names),
		CommentCount:    counts.Comments,
		AttachmentCount: counts.Attachments,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
	}
	if ticket.AssigneeID != nil {
		resp.Assignee = userRef(*ticket.AssigneeID, names)
	}
	return resp
}

func ticketDetail(detail *service.TicketDetail, names *service.TicketNames) dto.TicketDetailResponse {
	ticket := detail.Ticket
	resp := dto.TicketDetailResponse{
		ID:          ticket.ID,
		AppID:       ticket.AppID,
		UserID:      ticket.UserID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Category:    ticket.Category,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		AssigneeID:  ticket.AssigneeID,
		SLADeadline: ticket.SLADeadline,
		Reporter:    userRef(ticket.UserID, names),
		App:         appRef(ticket.AppID, names),
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		Comments:    make([]dto.TicketCommentResponse, 0, len(detail.Comments)),
		Attachments: make([]dto.AttachmentResponse, 0, len(detail.Attachments)),
	}
	if ticket.AssigneeID != nil {
		resp.Assignee = userRef(*ticket.AssigneeID, names)
	}
	for i := range detail.Comments {
		resp.Comments = append(resp.Comments, commentResponse(&detail.Comments[i], names))
	}
	for _, attachment := range detail.Attachments {
		resp.Attachments = append(resp.Attachments, attachmentResponse(&attachment))
	}
	var userNames map[string]string
	if names != nil {
		userNames = names.Users
	}
	for _, entry := range detail.History {
		resp.History = append(resp.History, historyResponse(entry, userNames))
	}
	return resp
}

// historyResponse renders one audit entry. Assignee entries store ids on
// disk; the response swaps them for display names when the lookup has one.
func historyResponse(entry domain.TicketHistory, names map[string]string) dto.TicketHistoryResponse {
	resp := dto.TicketHistoryResponse{
		ID:            entry.ID,
		Field:         entry.Field,
		OldValue:      entry.OldValue,
		NewValue:      entry.NewValue,
		ChangedBy:     entry.ChangedBy,
		ChangedByName: names[entry.ChangedBy],
		CreatedAt:     entry.CreatedAt,
	}
	if entry.Field == domain.HistoryFieldAssignee {
		resp.OldValue = assigneeDisplay(entry.OldValue, names)
		resp.NewValue = assigneeDisplay(entry.NewValue, names)
	}
	return resp
}

func assigneeDisplay(id string, names map[string]string) string {
	if id == "" {
		return "unassigned"
	}
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

func commentResponse(comment *domain.TicketComment, names *service.TicketNames) dto.TicketCommentResponse {
	return dto.TicketCommentResponse{
		ID:             comment.ID,
		UserID:         comment.UserID,
		Author:         userRef(comment.UserID, names),
		Body:           comment.Body,
		IsInternalNote: comment.IsInternalNote,
		CreatedAt:      comment.CreatedAt,
	}
}

// authorNames is a one-entry name lookup for responses where the only
// referenced user is the caller.
func authorNames(user *domain.User) *service.TicketNames {
	return &service.TicketNames{
		Users: map[string]string{user.ID: user.Name},
		Apps:  map[string]string{},
	}
}

func attachmentResponse(attachment *domain.TicketAttachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:        attachment.ID,
		FileURL:   attachment.FileURL,
		FileName:  attachment.FileName,
		FileSize:  attachment.FileSize,
		CreatedAt: attachment.CreatedAt,
	}
}

func feedbackSummary(feedback *domain.Feedback, replyCount int) dto.FeedbackSummary {
	return dto.FeedbackSummary{
		ID:         feedback.ID,
		AppID:      feedback.AppID,
		UserID:     feedback.UserID,
		Rating:     feedback.Rating,
		Category:   feedback.Category,
		Comment:    feedback.Comment,
		ReplyCount: replyCount,
		CreatedAt:  feedback.CreatedAt,
	}
}

func feedbackDetail(detail *service.FeedbackDetail) dto.FeedbackDetailResponse {
	feedback := detail.Feedback
	resp := dto.FeedbackDetailResponse{
		ID:        feedback.ID,
		AppID:     feedback.AppID,
		UserID:    feedback.UserID,
		Rating:    feedback.Rating,
		Category:  feedback.Category,
		Comment:   feedback.Comment,
		CreatedAt: feedback.CreatedAt,
		Replies:   make([]dto.FeedbackReplyResponse, 0, len(detail.Replies)),
	}
	for _, reply := range detail.Replies {
		resp.Replies = append(resp.Replies, replyResponse(&reply))
	}
	return resp
}

func replyResponse(reply *domain.FeedbackReply) dto.FeedbackReplyResponse {
	return dto.FeedbackReplyResponse{
		ID:        reply.ID,
		UserID:    reply.UserID,
		Body:      reply.Body,
		CreatedAt: reply.CreatedAt,
	}
}

func notificationResponse(notification *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        notification.ID,
		Type:      notification.Type,
		Title:     notification.Title,
		Message:   notification.Message,
		Link:      notification.Link,
		IsRead:    notification.IsRead,
		CreatedAt: notification.CreatedAt,
	}
}
