package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/feedback-hub/helpdesk/internal/api/dto"
	"github.com/feedback-hub/helpdesk/internal/service"
	apperrors "github.com/feedback-hub/helpdesk/pkg/util"
)

// FeedbackHandler manages end-user feedback endpoints.
type FeedbackHandler struct {
	service *service.FeedbackService
}

// NewFeedbackHandler constructs handler.
func NewFeedbackHandler(feedbackService *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: feedbackService}
}

// CreateFeedback POST /feedback.
func (h *FeedbackHandler) CreateFeedback(c *fiber.Ctx) error {
	principal, app, err := requireAppUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	// 4.5 stars is not a rating; reject fractional values instead of
	// truncating them.
	rating, err := strconv.Atoi(req.Rating.String())
	if err != nil {
		return apperrors.NewValidationError("rating must be an integer", map[string]any{"rating": req.Rating.String()})
	}

	feedback, err := h.service.CreateFeedback(c.Context(), app.ID, principal.User.ID, service.FeedbackCreateInput{
		Rating:   rating,
		Category: req.Category,
		Comment:  req.Comment,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": feedbackSummary(feedback, 0)})
}

// ListFeedback GET /feedback returns the caller's own entries.
func (h *FeedbackHandler) ListFeedback(c *fiber.Ctx) error {
	principal, app, err := requireAppUser(c)
	if err != nil {
		return err
	}
	limit, offset := parsePagination(c)

	feedbacks, total, err := h.service.ListUserFeedback(c.Context(), app.ID, principal.User.ID, limit, offset)
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
		"pagination": dto.Pagination{Total: total, Limit: limit, Offset: offset},
	})
}

// GetFeedback GET /feedback/:id.
func (h *FeedbackHandler) GetFeedback(c *fiber.Ctx) error {
	principal, _, err := requireAppUser(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetFeedbackForUser(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": feedbackDetail(detail)})
}
