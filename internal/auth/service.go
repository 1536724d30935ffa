package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	authentity "github.com/ovaphlow/pitchfork/service-auth/internal/auth/entity"
	"github.com/ovaphlow/pitchfork/service-auth/internal/obs"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user/entity"
)

// Users is the account directory; *user.UserService implements it.
type Users interface {
	Signup(ctx context.Context, email, password string) (*entity.User, error)
	Authenticate(ctx context.Context, email, password string) (*entity.User, error)
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetOrCreateSSO(ctx context.Context, email string) (*entity.User, error)
}

// Tokens is a freshly issued credential pair.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

const revokeTimeout = 5 * time.Second

// Service runs signup, signin, refresh, logout and SSO flows.
type Service struct {
	users     Users
	codec     *TokenCodec
	refresh   *RefreshStore
	accessTTL time.Duration
	logger    *zap.SugaredLogger

	bg errgroup.Group
}

func NewService(users Users, codec *TokenCodec, refresh *RefreshStore, accessTTL time.Duration, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{users: users, codec: codec, refresh: refresh, accessTTL: accessTTL, logger: logger}
}

// Signup creates a password account.
func (s *Service) Signup(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.users.Signup(ctx, email, password)
	if errors.Is(err, user.ErrEmailTaken) {
		return nil, ErrEmailTaken
	}
	return u, err
}

// Signin verifies credentials and issues a new token pair.
func (s *Service) Signin(ctx context.Context, email, password string) (Tokens, error) {
	u, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, user.ErrBadCredentials) {
			obs.Signins.WithLabelValues("rejected").Inc()
			return Tokens{}, ErrInvalidCredentials
		}
		obs.Signins.WithLabelValues("error").Inc()
		return Tokens{}, err
	}
	obs.Signins.WithLabelValues("ok").Inc()
	return s.IssueTokens(ctx, u)
}

// IssueTokens signs an access token and persists a new refresh token for u.
func (s *Service) IssueTokens(ctx context.Context, u *entity.User) (Tokens, error) {
	access, _, err := s.codec.Issue(u.ID, u.IsAdmin(), s.accessTTL)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := s.refresh.Create(ctx, u.ID)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate exchanges a valid refresh token for a new pair. The presented
// token is revoked in the background once the new one is stored, so both
// are briefly valid.
func (s *Service) Rotate(ctx context.Context, refreshToken string) (Tokens, error) {
	rt, u, err := s.refreshOwner(ctx, refreshToken)
	if err != nil {
		return Tokens{}, err
	}
	tokens, err := s.IssueTokens(ctx, u)
	if err != nil {
		return Tokens{}, err
	}
	obs.TokenRotations.Inc()

	id := rt.UUID
	bgCtx := context.WithoutCancel(ctx)
	s.bg.Go(func() error {
		ctx, cancel := context.WithTimeout(bgCtx, revokeTimeout)
		defer cancel()
		if err := s.refresh.Revoke(ctx, id); err != nil {
			obs.RevokeFailures.Inc()
			s.logger.Warnw("background revoke failed", "uuid", id, "err", err)
			return err
		}
		return nil
	})
	return tokens, nil
}

// Logout revokes a valid refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	rt, err := s.validRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	return s.refresh.Revoke(ctx, rt.UUID)
}

// LoginSSO signs in the account owning a provider-verified email, creating
// it on first use.
func (s *Service) LoginSSO(ctx context.Context, email string) (Tokens, error) {
	if email == "" {
		return Tokens{}, ErrBadRequest
	}
	u, err := s.users.GetOrCreateSSO(ctx, email)
	if err != nil {
		return Tokens{}, fmt.Errorf("sso account: %w", err)
	}
	return s.IssueTokens(ctx, u)
}

// Me loads the account behind resolved claims.
func (s *Service) Me(ctx context.Context, claims AccessClaims) (*entity.User, error) {
	u, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, ErrAuthRequired
	}
	return u, err
}

// Wait blocks until background revocations have finished.
func (s *Service) Wait() error {
	return s.bg.Wait()
}

func (s *Service) validRefresh(ctx context.Context, token string) (*authentity.RefreshToken, error) {
	rt, err := s.refresh.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if !s.refresh.Active(rt) {
		return nil, ErrRefreshTokenNotValid
	}
	return rt, nil
}

// refreshOwner resolves a valid refresh token and the account it belongs to.
func (s *Service) refreshOwner(ctx context.Context, token string) (*authentity.RefreshToken, *entity.User, error) {
	rt, err := s.validRefresh(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	u, err := s.users.GetByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, nil, ErrRefreshTokenNotValid
		}
		return nil, nil, err
	}
	return rt, u, nil
}
