package auth

import "errors"

// Client-facing failures. Handler.writeError maps each to a status code and
// a fixed detail message.
var (
	ErrAuthRequired         = errors.New("authentication required")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidToken         = errors.New("invalid token")
	ErrRefreshTokenNotValid = errors.New("refresh token is not valid")
	ErrAuthorizationFailed  = errors.New("authorization failed")
	ErrEmailTaken           = errors.New("email is already taken")
	ErrBadRequest           = errors.New("bad request")
)
