package authclient

import "errors"

var (
	ErrInvalidCredentials  = errors.New("authclient: invalid credentials")
	ErrAccountDisabled     = errors.New("authclient: account disabled")
	ErrNetwork             = errors.New("authclient: network error")
	ErrInvalidInput        = errors.New("authclient: invalid input")
	ErrNoRefreshToken      = errors.New("authclient: no refresh token stored")
	ErrRefreshTokenExpired = errors.New("authclient: refresh token expired or revoked")
)
