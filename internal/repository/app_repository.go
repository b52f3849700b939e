package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feedback-hub/helpdesk/internal/domain"
)

const appColumns = `id, name, api_key, icon_url, email_from, email_name,
               smtp_host, smtp_port, smtp_user, smtp_pass, push_url, push_key,
               created_at, updated_at`

// AppRepository encapsulates tenant persistence.
type AppRepository interface {
	GetByID(ctx context.Context, id string) (*domain.App, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.App, error)
	ListAdminIDs(ctx context.Context, appID string) ([]string, error)
	GetNamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
	UpdateEmailSettings(ctx context.Context, app *domain.App) error
}

type appRepository struct {
	pool *pgxpool.Pool
}

// NewAppRepository instantiates the repository.
func NewAppRepository(pool *pgxpool.Pool) AppRepository {
	return &appRepository{pool: pool}
}

func (r *appRepository) GetByID(ctx context.Context, id string) (*domain.App, error) {
	const query = `SELECT ` + appColumns + ` FROM apps WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *appRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.App, error) {
	const query = `SELECT ` + appColumns + ` FROM apps WHERE api_key=$1`
	return r.fetchSingle(ctx, query, apiKey)
}

func (r *appRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.App, error) {
	var app domain.App
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&app.ID,
		&app.Name,
		&app.APIKey,
		&app.IconURL,
		&app.EmailFrom,
		&app.EmailName,
		&app.SMTPHost,
		&app.SMTPPort,
		&app.SMTPUser,
		&app.SMTPPass,
		&app.PushURL,
		&app.PushKey,
		&app.CreatedAt,
		&app.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &app, nil
}

// ListAdminIDs returns the user ids of admins explicitly associated with
// the app, in insertion order.
func (r *appRepository) ListAdminIDs(ctx context.Context, appID string) ([]string, error) {
	const query = `SELECT user_id FROM app_admins WHERE app_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetNamesByIDs batch-resolves app ids to display names.
func (r *appRepository) GetNamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	result := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM apps WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		result[id] = name
	}
	return result, rows.Err()
}

func (r *appRepository) UpdateEmailSettings(ctx context.Context, app *domain.App) error {
	const query = `
        UPDATE apps SET email_from=$1, email_name=$2, smtp_host=$3, smtp_port=$4,
            smtp_user=$5, smtp_pass=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		app.EmailFrom,
		app.EmailName,
		app.SMTPHost,
		app.SMTPPort,
		app.SMTPUser,
		app.SMTPPass,
		app.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
