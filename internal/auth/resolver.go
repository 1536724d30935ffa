package auth

import (
	"context"
	"errors"

	"github.com/ovaphlow/pitchfork/service-auth/internal/obs"
)

// Resolution is the identity behind a request. MintedAccessToken is set
// when the access token was renewed from the refresh cookie and must be
// sent back to the client.
type Resolution struct {
	Claims            AccessClaims
	MintedAccessToken string
}

// Resolve authenticates a request from its access and refresh cookie
// values. A verifiable access token wins without touching storage.
// Otherwise a valid refresh token yields a newly minted access token for
// its owner; the refresh token itself is left untouched.
func (s *Service) Resolve(ctx context.Context, accessToken, refreshToken string) (Resolution, error) {
	if accessToken != "" {
		if claims, err := s.codec.Verify(accessToken); err == nil {
			return Resolution{Claims: claims}, nil
		}
	}
	if refreshToken == "" {
		return Resolution{}, ErrAuthRequired
	}

	_, owner, err := s.refreshOwner(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotValid) {
			return Resolution{}, ErrAuthRequired
		}
		return Resolution{}, err
	}
	minted, claims, err := s.codec.Issue(owner.ID, owner.IsAdmin(), s.accessTTL)
	if err != nil {
		return Resolution{}, err
	}
	obs.AccessRenewals.Inc()
	return Resolution{Claims: claims, MintedAccessToken: minted}, nil
}

// Authorize checks claims against the admin requirement.
func Authorize(claims AccessClaims, adminOnly bool) error {
	if adminOnly && !claims.IsAdmin {
		return ErrAuthorizationFailed
	}
	return nil
}
