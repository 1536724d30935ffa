package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-auth/internal/auth/entity"
)

// RefreshRepo stores refresh tokens in auth_refresh_token.
type RefreshRepo struct {
	db *sqlx.DB
}

func NewRefreshRepo(db *sqlx.DB) *RefreshRepo {
	return &RefreshRepo{db: db}
}

// Save inserts the row and fills CreatedAt.
func (r *RefreshRepo) Save(ctx context.Context, rt *entity.RefreshToken) error {
	query := `INSERT INTO auth_refresh_token (uuid, user_id, refresh_token, expires_at) VALUES ($1, $2, $3, $4) RETURNING created_at`
	row := r.db.QueryRowxContext(ctx, query, rt.UUID, rt.UserID, rt.Token, rt.ExpiresAt)
	return row.Scan(&rt.CreatedAt)
}

// GetByToken returns the row holding token or sql.ErrNoRows. Expired rows
// are returned as well; the caller decides validity.
func (r *RefreshRepo) GetByToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	query := `SELECT uuid, user_id, refresh_token, expires_at, created_at FROM auth_refresh_token WHERE refresh_token = $1`
	var rt entity.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *RefreshRepo) SetExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE auth_refresh_token SET expires_at = $2 WHERE uuid = $1`, id, expiresAt)
	return err
}
