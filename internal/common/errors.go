// Package common defines shared constants and sentinel errors used across
// client and server layers of gophauth. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors.
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrWeakPassword    = errors.New("weak password")
	ErrInvalidProvider = errors.New("invalid provider")

	// Credential errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrSamePassword       = errors.New("new password equals current password")
	ErrProviderConflict   = errors.New("user exists with different provider")

	// One-time code errors. Mismatch and expiry share ErrInvalidToken.
	ErrInvalidToken = errors.New("invalid token")

	// Session token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
