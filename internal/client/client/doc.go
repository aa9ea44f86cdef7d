// Package client talks to the gophauth gRPC service on behalf of the CLI.
//
// GRPCClient keeps the session token returned by Login or SocialAuth in
// memory and attaches it to every call through a unary interceptor. Logout
// forgets it. gRPC status codes are mapped to ErrUnavailable,
// ErrUnauthorized or a *RemoteError carrying the server's message.
package client
