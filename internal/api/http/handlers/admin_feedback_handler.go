package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/feedback-hub/helpdesk/internal/api/dto"
	"github.com/feedback-hub/helpdesk/internal/auth"
	"github.com/feedback-hub/helpdesk/internal/domain"
	"github.com/feedback-hub/helpdesk/internal/repository"
	"github.com/feedback-hub/helpdesk/internal/service"
	apperrors "github.com/feedback-hub/helpdesk/pkg/util"
)

// AdminFeedbackHandler manages the admin-side feedback endpoints.
type AdminFeedbackHandler struct {
	service *service.FeedbackService
}

// NewAdminFeedbackHandler constructs handler.
func NewAdminFeedbackHandler(feedbackService *service.FeedbackService) *AdminFeedbackHandler {
	return &AdminFeedbackHandler{service: feedbackService}
}

// ListFeedback GET /admin/feedback.
func (h *AdminFeedbackHandler) ListFeedback(c *fiber.Ctx) error {
	filter := repository.FeedbackFilter{}
	if appID := c.Query("app_id"); appID != "" {
		filter.AppID = &appID
	}
	if userID := c.Query("user_id"); userID != "" {
		filter.UserID = &userID
	}
	if categoryStr := c.Query("category"); categoryStr != "" {
		category := domain.FeedbackCategory(categoryStr)
		if category.IsValid() {
			filter.Category = &category
		}
	}
	if ratingStr := c.Query("rating"); ratingStr != "" {
		if rating, err := strconv.Atoi(ratingStr); err == nil {
			filter.Rating = &rating
		}
	}
	filter.Limit, filter.Offset = parsePagination(c)

	feedbacks, total, err := h.service.ListAdminFeedback(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.FeedbackSummary, 0, len(feedbacks))
	for i := range feedbacks {
		replies, err := h.service.CountReplies(c.Context(), feedbacks[i].ID)
		if err != nil {
			return err
		}
		items = append(items, feedbackSummary(&feedbacks[i], replies))
	}
	return c.JSON(fiber.Map{
		"data":       items,
		"pagination": dto.Pagination{Total: total, Limit: filter.Limit, Offset: filter.Offset},
	})
}

// GetFeedback GET /admin/feedback/:id.
func (h *AdminFeedbackHandler) GetFeedback(c *fiber.Ctx) error {
	detail, err := h.service.GetFeedback(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": feedbackDetail(detail)})
}

// AddReply POST /admin/feedback/:id/replies.
func (h *AdminFeedbackHandler) AddReply(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	reply, err := h.service.AddReply(c.Context(), principal.User, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": replyResponse(reply)})
}

// DeleteReply DELETE /admin/feedback/:id/replies/:replyId.
func (h *AdminFeedbackHandler) DeleteReply(c *fiber.Ctx) error {
	if err := h.service.DeleteReply(c.Context(), c.Params("replyId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeleteFeedback DELETE /admin/feedback/:id.
func (h *AdminFeedbackHandler) DeleteFeedback(c *fiber.Ctx) error {
	if err := h.service.DeleteFeedback(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
