package entity

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a persisted opaque refresh credential. Revoked rows are
// kept with an expiry in the past.
type RefreshToken struct {
	UUID      uuid.UUID `db:"uuid"`
	UserID    int64     `db:"user_id"`
	Token     string    `db:"refresh_token"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}
