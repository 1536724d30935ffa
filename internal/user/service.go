package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-auth/internal/user/repo"
)

// Store is the persistence surface the service needs; *repo.UserRepo
// implements it.
type Store interface {
	Create(ctx context.Context, u *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	DeleteByEmail(ctx context.Context, email string) error
}

// IDSource hands out new user ids.
type IDSource interface {
	Next() int64
}

// UserService orchestrates authentication and user lifecycle flows.
type UserService struct {
	store  Store
	hasher PasswordHasher
	ids    IDSource
	logger *zap.SugaredLogger
}

func NewUserService(store Store, hasher PasswordHasher, ids IDSource, logger *zap.SugaredLogger) *UserService {
	if hasher == nil {
		hasher = DefaultArgon2Hasher()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &UserService{store: store, hasher: hasher, ids: ids, logger: logger}
}

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrEmailTaken     = errors.New("email already taken")
)

// IsValidation reports input rejected by the signup policy.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidEmail) || errors.Is(err, ErrWeakPassword)
}

// Signup creates a password account with the default role.
func (s *UserService) Signup(ctx context.Context, email, password string) (*entity.User, error) {
	return s.CreateWithRole(ctx, email, password, entity.RoleUser)
}

// CreateWithRole validates the credentials and stores a new account.
func (s *UserService) CreateWithRole(ctx context.Context, email, password string, role entity.Role) (*entity.User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{ID: s.ids.Next(), Email: email, PasswordHash: &hash, Role: role}
	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetOrCreateSSO returns the account for a provider-verified email, creating
// a passwordless one on first login.
func (s *UserService) GetOrCreateSSO(ctx context.Context, email string) (*entity.User, error) {
	email = NormalizeEmail(email)
	u, err := s.store.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	u = &entity.User{ID: s.ids.Next(), Email: email, Role: entity.RoleUser}
	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrDuplicateEmail) {
			// lost a race with a concurrent first login
			return s.store.GetByEmail(ctx, email)
		}
		return nil, fmt.Errorf("create sso user: %w", err)
	}
	s.logger.Infow("sso account created", "user_id", u.ID)
	return u, nil
}

// Authenticate checks email and password. Unknown emails, passwordless
// accounts and wrong passwords all yield ErrBadCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrBadCredentials
	}
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		// unknown emails look the same as wrong passwords
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if u.PasswordHash == nil || *u.PasswordHash == "" {
		return nil, ErrBadCredentials
	}
	if !s.hasher.Verify(*u.PasswordHash, password) {
		return nil, ErrBadCredentials
	}

	if s.hasher.NeedsRehash(*u.PasswordHash) {
		if newHash, hErr := s.hasher.Hash(password); hErr == nil {
			if err := s.store.UpdatePassword(ctx, u.ID, newHash); err != nil {
				s.logger.Warnw("password rehash failed", "user_id", u.ID, "err", err)
			} else {
				u.PasswordHash = &newHash
			}
		}
	}
	return u, nil
}

// GetByID loads an account or returns ErrUserNotFound.
func (s *UserService) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// Delete removes an account by email.
func (s *UserService) Delete(ctx context.Context, email string) error {
	return s.store.DeleteByEmail(ctx, NormalizeEmail(email))
}
