package jwt

import "errors"

var (
	ErrMissingToken      = errors.New("jwt: missing token")
	ErrInvalidToken      = errors.New("jwt: invalid token")
	ErrExpiredToken      = errors.New("jwt: token is expired")
	ErrInvalidSignature  = errors.New("jwt: invalid signature")
	ErrInvalidSubject    = errors.New("jwt: subject is not a user id")
	ErrMissingSigningKey = errors.New("jwt: missing signing key")
)
