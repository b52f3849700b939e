package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feedback-hub/helpdesk/internal/domain"
)

// NotificationRepository stores persisted in-app alerts.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, int, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates the repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (user_id, type, title, message, link)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, is_read, created_at`
	return r.pool.QueryRow(ctx, query,
		notification.UserID,
		notification.Type,
		notification.Title,
		notification.Message,
		notification.Link,
	).Scan(&notification.ID, &notification.IsRead, &notification.CreatedAt)
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id=$1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const query = `
        SELECT id, user_id, type, title, message, link, is_read, created_at
        FROM notifications WHERE user_id=$1
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var notification domain.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.UserID,
			&notification.Type,
			&notification.Title,
			&notification.Message,
			&notification.Link,
			&notification.IsRead,
			&notification.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND is_read=FALSE`, userID,
	).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead is scoped by both id and owner so one user cannot toggle
// another's alerts.
func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read=TRUE WHERE id=$1 AND user_id=$2`, id, userID)
	return err
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read=TRUE WHERE user_id=$1 AND is_read=FALSE`, userID)
	return err
}
