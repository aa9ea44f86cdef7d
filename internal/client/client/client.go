package client

import "context"

// User is the public view of an account as returned by the server.
type User struct {
	ID            string
	Email         string
	Name          string
	Role          string
	Provider      string
	EmailVerified bool
}

// Client is the set of auth operations the CLI needs.
type Client interface {
	Close() error
	Register(ctx context.Context, name, email, password, role string) (string, error)
	RequestEmailToken(ctx context.Context, email string) (string, error)
	VerifyEmail(ctx context.Context, email string, code int) (string, error)
	Login(ctx context.Context, email, password string) (*User, error)
	Logout(ctx context.Context) (string, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, email string, code int, password string) (string, error)
	UpdatePassword(ctx context.Context, currentPassword, newPassword string) (string, error)
	SocialAuth(ctx context.Context, email, name, role, provider string) (*User, error)
	LoggedIn() bool
}
