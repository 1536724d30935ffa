package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ovaphlow/pitchfork/service-auth/internal/user/entity"
)

type UserStore struct{ mock.Mock }

func (m *UserStore) Create(ctx context.Context, u *entity.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *UserStore) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *UserStore) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *UserStore) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *UserStore) DeleteByEmail(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
