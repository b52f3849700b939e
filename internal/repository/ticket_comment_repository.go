package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feedback-hub/helpdesk/internal/domain"
)

// TicketCommentRepository stores ticket thread comments.
type TicketCommentRepository interface {
	Create(ctx context.Context, comment *domain.TicketComment) error
	// ListByTicket returns comments in chronological order. When
	// includeInternal is false, internal notes are filtered out at the
	// query level so they never reach non-admin read paths.
	ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.TicketComment, error)
	Delete(ctx context.Context, id string) error
}

type ticketCommentRepository struct {
	pool *pgxpool.Pool
}

// NewTicketCommentRepository builds repository.
func NewTicketCommentRepository(pool *pgxpool.Pool) TicketCommentRepository {
	return &ticketCommentRepository{pool: pool}
}

func (r *ticketCommentRepository) Create(ctx context.Context, comment *domain.TicketComment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, user_id, body, is_internal_note)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.UserID,
		comment.Body,
		comment.IsInternalNote,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *ticketCommentRepository) ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.TicketComment, error) {
	query := `
        SELECT id, ticket_id, user_id, body, is_internal_note, created_at
        FROM ticket_comments WHERE ticket_id=$1`
	if !includeInternal {
		query += ` AND is_internal_note=FALSE`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketComment
	for rows.Next() {
		var comment domain.TicketComment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.UserID,
			&comment.Body,
			&comment.IsInternalNote,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}

func (r *ticketCommentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_comments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
