package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ovaphlow/pitchfork/service-auth/internal/auth/entity"
)

type RefreshRepository struct{ mock.Mock }

func (m *RefreshRepository) Save(ctx context.Context, rt *entity.RefreshToken) error {
	return m.Called(ctx, rt).Error(0)
}

func (m *RefreshRepository) GetByToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RefreshToken), args.Error(1)
}

func (m *RefreshRepository) SetExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	return m.Called(ctx, id, expiresAt).Error(0)
}
