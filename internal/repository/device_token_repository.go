package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feedback-hub/helpdesk/internal/domain"
)

// DeviceTokenRepository stores mobile push registrations.
type DeviceTokenRepository interface {
	Upsert(ctx context.Context, token *domain.DeviceToken) error
	DeleteByUserToken(ctx context.Context, userID, token string) error
	ListByUserApp(ctx context.Context, userID, appID string) ([]domain.DeviceToken, error)
	DeleteByIDs(ctx context.Context, ids []string) error
}

type deviceTokenRepository struct {
	pool *pgxpool.Pool
}

// NewDeviceTokenRepository instantiates the repository.
func NewDeviceTokenRepository(pool *pgxpool.Pool) DeviceTokenRepository {
	return &deviceTokenRepository{pool: pool}
}

func (r *deviceTokenRepository) Upsert(ctx context.Context, token *domain.DeviceToken) error {
	const query = `
        INSERT INTO device_tokens (user_id, app_id, token, platform)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (user_id, token)
        DO UPDATE SET app_id=EXCLUDED.app_id, platform=EXCLUDED.platform, updated_at=NOW()
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		token.UserID,
		token.AppID,
		token.Token,
		token.Platform,
	).Scan(&token.ID, &token.CreatedAt, &token.UpdatedAt)
}

func (r *deviceTokenRepository) DeleteByUserToken(ctx context.Context, userID, token string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM device_tokens WHERE user_id=$1 AND token=$2`, userID, token)
	return err
}

func (r *deviceTokenRepository) ListByUserApp(ctx context.Context, userID, appID string) ([]domain.DeviceToken, error) {
	const query = `
        SELECT id, user_id, app_id, token, platform, created_at, updated_at
        FROM device_tokens WHERE user_id=$1 AND app_id=$2`
	rows, err := r.pool.Query(ctx, query, userID, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DeviceToken
	for rows.Next() {
		var token domain.DeviceToken
		if err := rows.Scan(
			&token.ID,
			&token.UserID,
			&token.AppID,
			&token.Token,
			&token.Platform,
			&token.CreatedAt,
			&token.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, token)
	}
	return result, rows.Err()
}

// DeleteByIDs prunes tokens the push gateway rejected as stale.
func (r *deviceTokenRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM device_tokens WHERE id = ANY($1)`, ids)
	return err
}
