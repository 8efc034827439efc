package session

import "errors"

var (
	// ErrInvalidSession indicates the token is malformed, forged or names no user
	ErrInvalidSession = errors.New("session.invalid")

	// ErrSessionExpired indicates the session has expired
	ErrSessionExpired = errors.New("session.expired")

	// ErrSessionNotFound indicates no session token was presented
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrSecretRequired indicates a JWT validator was created without a secret
	ErrSecretRequired = errors.New("session.secret_required")
)
