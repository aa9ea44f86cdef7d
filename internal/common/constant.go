// Package common contains shared constants and sentinel errors used across
// gophauth components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// session token on outbound requests.
const AccessTokenHeaderName = "access_token"

// RequestIDHeaderName is the HTTP header echoed back with the request id
// assigned by the server.
const RequestIDHeaderName = "X-Request-Id"
