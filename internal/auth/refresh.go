package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/ovaphlow/pitchfork/service-auth/internal/auth/entity"
)

const (
	refreshTokenLength   = 64
	refreshTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// revoked tokens are pushed this far into the past
	revokeBackdate = 24 * time.Hour
)

// RefreshRepository persists refresh tokens; *repo.RefreshRepo implements it.
type RefreshRepository interface {
	Save(ctx context.Context, rt *entity.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*entity.RefreshToken, error)
	SetExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
}

// RefreshStore issues, looks up and revokes opaque refresh tokens.
type RefreshStore struct {
	repo  RefreshRepository
	clock clockwork.Clock
	ttl   time.Duration
}

func NewRefreshStore(repo RefreshRepository, clock clockwork.Clock, ttl time.Duration) *RefreshStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RefreshStore{repo: repo, clock: clock, ttl: ttl}
}

// Create persists a fresh token for userID and returns its plaintext.
func (s *RefreshStore) Create(ctx context.Context, userID int64) (string, error) {
	tok, err := randomToken(refreshTokenLength)
	if err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	rt := &entity.RefreshToken{
		UUID:      uuid.New(),
		UserID:    userID,
		Token:     tok,
		ExpiresAt: s.clock.Now().Add(s.ttl),
	}
	if err := s.repo.Save(ctx, rt); err != nil {
		return "", fmt.Errorf("save refresh token: %w", err)
	}
	return tok, nil
}

// Lookup returns the record for token, or nil when there is none. Expiry
// is not checked here.
func (s *RefreshStore) Lookup(ctx context.Context, token string) (*entity.RefreshToken, error) {
	if token == "" {
		return nil, nil
	}
	rt, err := s.repo.GetByToken(ctx, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	return rt, nil
}

// Revoke expires the token identified by id. Revoking twice is harmless.
func (s *RefreshStore) Revoke(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetExpiry(ctx, id, s.clock.Now().Add(-revokeBackdate)); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// Valid reports whether rt is present and expires strictly after now.
func Valid(rt *entity.RefreshToken, now time.Time) bool {
	return rt != nil && now.Before(rt.ExpiresAt)
}

// Active is Valid evaluated at the store's clock.
func (s *RefreshStore) Active(rt *entity.RefreshToken) bool {
	return Valid(rt, s.clock.Now())
}

func randomToken(n int) (string, error) {
	limit := big.NewInt(int64(len(refreshTokenAlphabet)))
	b := make([]byte, n)
	for i := range b {
		v, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = refreshTokenAlphabet[v.Int64()]
	}
	return string(b), nil
}
