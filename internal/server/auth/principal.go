package auth

import "context"

// Principal is the authenticated caller of a request, derived from a
// verified session token. It is passed explicitly to operations that need it.
type Principal struct {
	UserID string
	Role   string
}

type ctxKey struct{}

// WithPrincipal stores p in ctx for transports that carry it between an
// interceptor and a handler.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
