package client

import (
	"errors"

	"google.golang.org/grpc/codes"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotLoggedIn  = errors.New("not logged in")
)

// RemoteError is a failure reported by the server with a message meant for
// the user.
type RemoteError struct {
	Code    codes.Code
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}
