package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feedback-hub/helpdesk/internal/domain"
)

// TicketAttachmentRepository stores attachment metadata. Rows are immutable
// and removed only by cascading ticket deletion.
type TicketAttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.TicketAttachment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketAttachment, error)
}

type ticketAttachmentRepository struct {
	pool *pgxpool.Pool
}

// NewTicketAttachmentRepository builds repository.
func NewTicketAttachmentRepository(pool *pgxpool.Pool) TicketAttachmentRepository {
	return &ticketAttachmentRepository{pool: pool}
}

func (r *ticketAttachmentRepository) Create(ctx context.Context, attachment *domain.TicketAttachment) error {
	const query = `
        INSERT INTO ticket_attachments (ticket_id, file_url, file_name, file_size)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		attachment.TicketID,
		attachment.FileURL,
		attachment.FileName,
		attachment.FileSize,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *ticketAttachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketAttachment, error) {
	const query = `
        SELECT id, ticket_id, file_url, file_name, file_size, created_at
        FROM ticket_attachments WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketAttachment
	for rows.Next() {
		var attachment domain.TicketAttachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.TicketID,
			&attachment.FileURL,
			&attachment.FileName,
			&attachment.FileSize,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}
