package user_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-auth/internal/mocks"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-auth/internal/user/repo"
)

type seqIDs struct{ n int64 }

func (s *seqIDs) Next() int64 { s.n++; return s.n }

func strptr(s string) *string { return &s }

func TestSignup_CreatesUserWithDefaultRole(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.UserStore)
	hasher := new(mocks.PasswordHasher)

	store.On("GetByEmail", ctx, "alice@example.com").Return(nil, sql.ErrNoRows)
	hasher.On("Hash", "Passw0rd!").Return("hashed", nil)
	store.On("Create", ctx, mock.MatchedBy(func(u *entity.User) bool {
		return u.ID == 1 && u.Email == "alice@example.com" && u.Role == entity.RoleUser &&
			u.PasswordHash != nil && *u.PasswordHash == "hashed"
	})).Return(nil)

	svc := user.NewUserService(store, hasher, &seqIDs{}, nil)
	u, err := svc.Signup(ctx, " Alice@Example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.False(t, u.IsAdmin())

	store.AssertExpectations(t)
	hasher.AssertExpectations(t)
}

func TestSignup_Validation(t *testing.T) {
	svc := user.NewUserService(new(mocks.UserStore), new(mocks.PasswordHasher), &seqIDs{}, nil)

	_, err := svc.Signup(context.Background(), "not-an-email", "Passw0rd!")
	assert.ErrorIs(t, err, user.ErrInvalidEmail)
	assert.True(t, user.IsValidation(err))

	_, err = svc.Signup(context.Background(), "alice@example.com", "password")
	assert.ErrorIs(t, err, user.ErrWeakPassword)
	assert.True(t, user.IsValidation(err))
}

func TestSignup_EmailTaken(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.UserStore)
	store.On("GetByEmail", ctx, "alice@example.com").Return(&entity.User{ID: 7}, nil)

	svc := user.NewUserService(store, new(mocks.PasswordHasher), &seqIDs{}, nil)
	_, err := svc.Signup(ctx, "alice@example.com", "Passw0rd!")
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestSignup_EmailTakenOnInsertRace(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.UserStore)
	hasher := new(mocks.PasswordHasher)
	store.On("GetByEmail", ctx, "alice@example.com").Return(nil, sql.ErrNoRows)
	hasher.On("Hash", "Passw0rd!").Return("hashed", nil)
	store.On("Create", ctx, mock.Anything).Return(userrepo.ErrDuplicateEmail)

	svc := user.NewUserService(store, hasher, &seqIDs{}, nil)
	_, err := svc.Signup(ctx, "alice@example.com", "Passw0rd!")
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestCreateWithRole_Admin(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.UserStore)
	hasher := new(mocks.PasswordHasher)
	store.On("GetByEmail", ctx, "root@example.com").Return(nil, sql.ErrNoRows)
	hasher.On("Hash", "Adm1n!!").Return("hashed", nil)
	store.On("Create", ctx, mock.Anything).Return(nil)

	svc := user.NewUserService(store, hasher, &seqIDs{}, nil)
	u, err := svc.CreateWithRole(ctx, "root@example.com", "Adm1n!!", entity.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	alice := &entity.User{ID: 1, Email: "alice@example.com", PasswordHash: strptr("hashed"), Role: entity.RoleUser}
	sso := &entity.User{ID: 2, Email: "sso@example.com", Role: entity.RoleUser}

	store := new(mocks.UserStore)
	hasher := new(mocks.PasswordHasher)
	store.On("GetByEmail", ctx, "alice@example.com").Return(alice, nil)
	store.On("GetByEmail", ctx, "sso@example.com").Return(sso, nil)
	store.On("GetByEmail", ctx, "ghost@example.com").Return(nil, sql.ErrNoRows)
	hasher.On("Verify", "hashed", "Passw0rd!").Return(true)
	hasher.On("Verify", "hashed", "wrong").Return(false)
	hasher.On("NeedsRehash", "hashed").Return(false)

	svc := user.NewUserService(store, hasher, &seqIDs{}, nil)

	u, err := svc.Authenticate(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	_, err = svc.Authenticate(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, user.ErrBadCredentials)
	_, err = svc.Authenticate(ctx, "ghost@example.com", "Passw0rd!")
	assert.ErrorIs(t, err, user.ErrBadCredentials)
	_, err = svc.Authenticate(ctx, "sso@example.com", "")
	assert.ErrorIs(t, err, user.ErrBadCredentials)
	_, err = svc.Authenticate(ctx, "", "Passw0rd!")
	assert.ErrorIs(t, err, user.ErrBadCredentials)
}

func TestAuthenticate_RehashesLegacyHash(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.UserStore)
	hasher := new(mocks.PasswordHasher)
	store.On("GetByEmail", ctx, "alice@example.com").
		Return(&entity.User{ID: 1, Email: "alice@example.com", PasswordHash: strptr("$2a$old")}, nil)
	hasher.On("Verify", "$2a$old", "Passw0rd!").Return(true)
	hasher.On("NeedsRehash", "$2a$old").Return(true)
	hasher.On("Hash", "Passw0rd!").Return("$argon2id$new", nil)
	store.On("UpdatePassword", ctx, int64(1), "$argon2id$new").Return(nil)

	svc := user.NewUserService(store, hasher, &seqIDs{}, nil)
	u, err := svc.Authenticate(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, "$argon2id$new", *u.PasswordHash)
	store.AssertExpectations(t)
}

func TestAuthenticate_StoreError(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.UserStore)
	store.On("GetByEmail", ctx, "alice@example.com").Return(nil, errors.New("db down"))

	svc := user.NewUserService(store, new(mocks.PasswordHasher), &seqIDs{}, nil)
	_, err := svc.Authenticate(ctx, "alice@example.com", "Passw0rd!")
	require.Error(t, err)
	assert.NotErrorIs(t, err, user.ErrBadCredentials)
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.UserStore)
	store.On("GetByID", ctx, int64(1)).Return(&entity.User{ID: 1}, nil)
	store.On("GetByID", ctx, int64(2)).Return(nil, sql.ErrNoRows)

	svc := user.NewUserService(store, new(mocks.PasswordHasher), &seqIDs{}, nil)
	u, err := svc.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	_, err = svc.GetByID(ctx, 2)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestGetOrCreateSSO(t *testing.T) {
	ctx := context.Background()

	t.Run("existing", func(t *testing.T) {
		store := new(mocks.UserStore)
		store.On("GetByEmail", ctx, "bob@example.com").Return(&entity.User{ID: 9, Email: "bob@example.com"}, nil)
		svc := user.NewUserService(store, new(mocks.PasswordHasher), &seqIDs{}, nil)

		u, err := svc.GetOrCreateSSO(ctx, "Bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, int64(9), u.ID)
		store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("first login", func(t *testing.T) {
		store := new(mocks.UserStore)
		store.On("GetByEmail", ctx, "bob@example.com").Return(nil, sql.ErrNoRows)
		store.On("Create", ctx, mock.MatchedBy(func(u *entity.User) bool {
			return u.PasswordHash == nil && u.Role == entity.RoleUser
		})).Return(nil)
		svc := user.NewUserService(store, new(mocks.PasswordHasher), &seqIDs{}, nil)

		u, err := svc.GetOrCreateSSO(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, int64(1), u.ID)
		store.AssertExpectations(t)
	})

	t.Run("race", func(t *testing.T) {
		store := new(mocks.UserStore)
		store.On("GetByEmail", ctx, "bob@example.com").Return(nil, sql.ErrNoRows).Once()
		store.On("Create", ctx, mock.Anything).Return(userrepo.ErrDuplicateEmail)
		store.On("GetByEmail", ctx, "bob@example.com").Return(&entity.User{ID: 3}, nil).Once()
		svc := user.NewUserService(store, new(mocks.PasswordHasher), &seqIDs{}, nil)

		u, err := svc.GetOrCreateSSO(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, int64(3), u.ID)
	})
}
