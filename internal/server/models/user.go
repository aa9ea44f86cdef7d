// Package models holds the server-side domain entities.
package models

import "time"

// Provider is the authentication method an account was created with.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
	ProviderApple  Provider = "apple"
)

// IsSocial reports whether p is an external identity provider.
func (p Provider) IsSocial() bool {
	return p == ProviderGoogle || p == ProviderApple
}

// DefaultRole is assigned when registration does not name one.
const DefaultRole = "user"

// OneTimeToken is a short-lived numeric code delivered by email. Code and
// Expires always travel together.
type OneTimeToken struct {
	Code    int
	Expires time.Time
}

// Matches reports whether code equals the stored code and the token has not
// expired at now.
func (t *OneTimeToken) Matches(code int, now time.Time) bool {
	if t == nil {
		return false
	}
	return t.Code == code && t.Expires.After(now)
}

// User is the only persisted entity. PasswordHash is populated only when a
// repository call explicitly asks for the secret and is never serialised.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	Provider      Provider  `json:"provider"`
	PasswordHash  string    `json:"-"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	EmailVerification *OneTimeToken `json:"-"`
	PasswordReset     *OneTimeToken `json:"-"`
}
