package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// AccessClaims is the identity carried by an access token.
type AccessClaims struct {
	UserID    int64
	IsAdmin   bool
	ExpiresAt time.Time
}

type accessTokenClaims struct {
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies access tokens with a shared HMAC secret.
type TokenCodec struct {
	method *jwt.SigningMethodHMAC
	secret []byte
	clock  clockwork.Clock
}

func NewTokenCodec(alg, secret string, clock clockwork.Clock) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	m, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm %q", alg)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenCodec{method: m, secret: []byte(secret), clock: clock}, nil
}

// Issue signs a token for userID that expires after ttl.
func (c *TokenCodec) Issue(userID int64, isAdmin bool, ttl time.Duration) (string, AccessClaims, error) {
	now := c.clock.Now()
	exp := jwt.NewNumericDate(now.Add(ttl))
	claims := accessTokenClaims{
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: exp,
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", AccessClaims{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, AccessClaims{UserID: userID, IsAdmin: isAdmin, ExpiresAt: exp.Time}, nil
}

// Verify returns the claims of a well-formed, correctly signed, unexpired
// token. Every failure is reported as ErrInvalidToken.
func (c *TokenCodec) Verify(token string) (AccessClaims, error) {
	var claims accessTokenClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.clock.Now),
	)
	if err != nil {
		return AccessClaims{}, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return AccessClaims{}, ErrInvalidToken
	}
	return AccessClaims{UserID: id, IsAdmin: claims.IsAdmin, ExpiresAt: claims.ExpiresAt.Time}, nil
}
