package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feedback-hub/helpdesk/internal/domain"
)

const feedbackColumns = `id, app_id, user_id, rating, category, comment, created_at`

// FeedbackFilter captures feedback listing parameters.
type FeedbackFilter struct {
	AppID    *string
	UserID   *string
	Category *domain.FeedbackCategory
	Rating   *int
	Limit    int
	Offset   int
}

// FeedbackRepository stores feedback entries and their replies.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *domain.Feedback) error
	GetByID(ctx context.Context, id string) (*domain.Feedback, error)
	ListWithFilter(ctx context.Context, filter FeedbackFilter) ([]domain.Feedback, int, error)
	Delete(ctx context.Context, id string) error
	CountReplies(ctx context.Context, feedbackID string) (int, error)
	CreateReply(ctx context.Context, reply *domain.FeedbackReply) error
	ListReplies(ctx context.Context, feedbackID string) ([]domain.FeedbackReply, error)
	DeleteReply(ctx context.Context, replyID string) error
}

type feedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository instantiates the repository.
func NewFeedbackRepository(pool *pgxpool.Pool) FeedbackRepository {
	return &feedbackRepository{pool: pool}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) error {
	const query = `
        INSERT INTO feedbacks (app_id, user_id, rating, category, comment)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		feedback.AppID,
		feedback.UserID,
		feedback.Rating,
		feedback.Category,
		feedback.Comment,
	).Scan(&feedback.ID, &feedback.CreatedAt)
}

func (r *feedbackRepository) GetByID(ctx context.Context, id string) (*domain.Feedback, error) {
	const query = `SELECT ` + feedbackColumns + ` FROM feedbacks WHERE id=$1`
	var feedback domain.Feedback
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&feedback.ID,
		&feedback.AppID,
		&feedback.UserID,
		&feedback.Rating,
		&feedback.Category,
		&feedback.Comment,
		&feedback.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (r *feedbackRepository) ListWithFilter(ctx context.Context, filter FeedbackFilter) ([]domain.Feedback, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.AppID != nil {
		args = append(args, *filter.AppID)
		clauses = append(clauses, fmt.Sprintf("app_id=$%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.Rating != nil {
		args = append(args, *filter.Rating)
		clauses = append(clauses, fmt.Sprintf("rating=$%d", len(args)))
	}

	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM feedbacks WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM feedbacks WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		feedbackColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Feedback
	for rows.Next() {
		var feedback domain.Feedback
		if err := rows.Scan(
			&feedback.ID,
			&feedback.AppID,
			&feedback.UserID,
			&feedback.Rating,
			&feedback.Category,
			&feedback.Comment,
			&feedback.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, feedback)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *feedbackRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM feedbacks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *feedbackRepository) CountReplies(ctx context.Context, feedbackID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM feedback_replies WHERE feedback_id=$1`, feedbackID,
	).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *feedbackRepository) CreateReply(ctx context.Context, reply *domain.FeedbackReply) error {
	const query = `
        INSERT INTO feedback_replies (feedback_id, user_id, body)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		reply.FeedbackID,
		reply.UserID,
		reply.Body,
	).Scan(&reply.ID, &reply.CreatedAt)
}

func (r *feedbackRepository) ListReplies(ctx context.Context, feedbackID string) ([]domain.FeedbackReply, error) {
	const query = `
        SELECT id, feedback_id, user_id, body, created_at
        FROM feedback_replies WHERE feedback_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, feedbackID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.FeedbackReply
	for rows.Next() {
		var reply domain.FeedbackReply
		if err := rows.Scan(
			&reply.ID,
			&reply.FeedbackID,
			&reply.UserID,
			&reply.Body,
			&reply.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, reply)
	}
	return result, rows.Err()
}

func (r *feedbackRepository) DeleteReply(ctx context.Context, replyID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM feedback_replies WHERE id=$1`, replyID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
