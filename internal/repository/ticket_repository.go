package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feedback-hub/helpdesk/internal/domain"
)

const ticketColumns = `id, app_id, user_id, title, description, category,
               priority, status, assignee_id, sla_deadline, created_at, updated_at`

// TicketFilter captures admin search parameters.
type TicketFilter struct {
	AppID      *string
	UserID     *string
	AssigneeID *string
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Limit      int
	Offset     int
}

// TicketUpdate carries the mutable ticket fields of a partial update.
// AssigneeSet distinguishes "clear assignee" from "leave untouched".
type TicketUpdate struct {
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	AssigneeID  *string
	AssigneeSet bool
	SLADeadline *time.Time
}

// Empty reports whether the update carries no field changes.
func (u TicketUpdate) Empty() bool {
	return u.Status == nil && u.Priority == nil && !u.AssigneeSet && u.SLADeadline == nil
}

// TicketCounts aggregates thread sizes for list views.
type TicketCounts struct {
	Comments    int
	Attachments int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	// ApplyUpdate commits the field update and its history entries as one
	// atomic transaction: all entries plus the update, or nothing.
	ApplyUpdate(ctx context.Context, ticketID string, update TicketUpdate, history []domain.TicketHistory) (*domain.Ticket, error)
	CountActiveByAssignee(ctx context.Context, userID string) (int, error)
	// CountsByIDs resolves comment/attachment totals for a page of tickets
	// in one round trip.
	CountsByIDs(ctx context.Context, ids []string) (map[string]TicketCounts, error)
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (app_id, user_id, title, description, category, priority, status, assignee_id, sla_deadline)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.AppID,
		ticket.UserID,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.AssigneeID,
		ticket.SLADeadline,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(ticketScanTargets(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
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
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}

	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM tickets WHERE %s`, where)
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

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *ticketRepository) ApplyUpdate(ctx context.Context, ticketID string, update TicketUpdate, history []domain.TicketHistory) (*domain.Ticket, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	sets := []string{"updated_at=NOW()"}
	args := []any{}
	if update.Status != nil {
		args = append(args, *update.Status)
		sets = append(sets, fmt.Sprintf("status=$%d", len(args)))
	}
	if update.Priority != nil {
		args = append(args, *update.Priority)
		sets = append(sets, fmt.Sprintf("priority=$%d", len(args)))
	}
	if update.AssigneeSet {
		args = append(args, update.AssigneeID)
		sets = append(sets, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if update.SLADeadline != nil {
		args = append(args, *update.SLADeadline)
		sets = append(sets, fmt.Sprintf("sla_deadline=$%d", len(args)))
	}

	args = append(args, ticketID)
	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), ticketColumns)

	var ticket domain.Ticket
	if err := tx.QueryRow(ctx, query, args...).Scan(ticketScanTargets(&ticket)...); err != nil {
		return nil, err
	}

	const historyInsert = `
        INSERT INTO ticket_history (ticket_id, changed_by, field, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5)`
	for _, entry := range history {
		if _, err := tx.Exec(ctx, historyInsert,
			entry.TicketID,
			entry.ChangedBy,
			entry.Field,
			entry.OldValue,
			entry.NewValue,
		); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// CountActiveByAssignee counts open or in-progress tickets assigned to the
// given user, the workload measure used by the assignment balancer.
func (r *ticketRepository) CountActiveByAssignee(ctx context.Context, userID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM tickets
        WHERE assignee_id=$1 AND status IN ('open','in_progress')`
	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) CountsByIDs(ctx context.Context, ids []string) (map[string]TicketCounts, error) {
	result := make(map[string]TicketCounts, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	const query = `
        SELECT t.id,
            (SELECT COUNT(*) FROM ticket_comments c WHERE c.ticket_id=t.id),
            (SELECT COUNT(*) FROM ticket_attachments a WHERE a.ticket_id=t.id)
        FROM tickets t WHERE t.id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var counts TicketCounts
		if err := rows.Scan(&id, &counts.Comments, &counts.Attachments); err != nil {
			return nil, err
		}
		result[id] = counts
	}
	return result, rows.Err()
}

// Delete removes a ticket; comments, attachments and history cascade.
func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func ticketScanTargets(ticket *domain.Ticket) []any {
	return []any{
		&ticket.ID,
		&ticket.AppID,
		&ticket.UserID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.AssigneeID,
		&ticket.SLADeadline,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	}
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketScanTargets(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
